package annotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"infospace/internal/domain/entity"
	"infospace/internal/repository"
)

// runParallelism bounds concurrent Executor.Annotate calls within a single
// run, mirroring usecase/fetch.Service's content-fetch semaphore sizing.
const runParallelism = 4

// RunOptions mirrors the run-creation knobs of spec §4.5/§3 (configuration,
// include_parent_context, context_window) plus the asset/schema selection
// that spec's Python AnnotationRunCreate resolves before persistence.
type RunOptions struct {
	IncludeParentContext bool
	ContextWindow        int
	ModelName            string
}

// Service orchestrates AnnotationRun creation and execution: selecting the
// (asset, schema) pairs a run covers, running them through Executor, and
// driving the run's lifecycle transitions (spec §4.5).
type Service struct {
	RunRepo        repository.RunRepository
	SchemaRepo     repository.SchemaRepository
	AssetRepo      repository.AssetRepository
	AnnotationRepo repository.AnnotationRepository
	Executor       *Executor
}

// CreateRun persists a PENDING run targeting schemaIDs over assetIDs.
// assetIDs is expected to already be resolved from either an explicit list
// or a bundle's members by the caller (spec §3's AnnotationRunCreate takes
// target_asset_ids XOR target_bundle_id; bundle expansion is the handler
// layer's job, not the run's).
func (s *Service) CreateRun(ctx context.Context, infospaceID, userID int64, name string, schemaIDs, assetIDs []int64, opts RunOptions) (*entity.AnnotationRun, error) {
	if len(schemaIDs) == 0 {
		return nil, &entity.ValidationError{Field: "schema_ids", Message: "at least one schema is required"}
	}
	if len(assetIDs) == 0 {
		return nil, &entity.ValidationError{Field: "asset_ids", Message: "at least one target asset is required"}
	}

	run := entity.NewAnnotationRun(infospaceID, userID, name, schemaIDs)
	run.IncludeParentContext = opts.IncludeParentContext
	run.ContextWindow = opts.ContextWindow
	run.Configuration["asset_ids"] = assetIDs
	if opts.ModelName != "" {
		run.Configuration["model_name"] = opts.ModelName
	}

	if err := s.RunRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create annotation run: %w", err)
	}
	return run, nil
}

// Execute drives run from PENDING to a terminal status, annotating every
// (asset, schema) pair concurrently up to runParallelism. Per-item provider
// or validation failures are recorded on the Annotation and counted; they
// do not abort the run (spec §7: "ProviderError ... run continues"). Only
// context cancellation (pause/external shutdown) stops the run early,
// leaving it RUNNING so a later call can resume against whatever pairs
// remain incomplete.
func (s *Service) Execute(ctx context.Context, runID int64) error {
	run, err := s.RunRepo.Get(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run %d: %w", runID, err)
	}

	if run.Status == entity.RunStatusPending {
		if err := run.Transition(entity.RunStatusRunning); err != nil {
			return err
		}
		if err := s.RunRepo.Update(ctx, run); err != nil {
			return fmt.Errorf("mark run %d running: %w", runID, err)
		}
	}

	assetIDs, err := resolveAssetIDs(run)
	if err != nil {
		return s.failRun(ctx, run, err)
	}

	assets := make([]*entity.Asset, 0, len(assetIDs))
	for _, id := range assetIDs {
		asset, err := s.AssetRepo.Get(ctx, id)
		if err != nil {
			return s.failRun(ctx, run, fmt.Errorf("load asset %d: %w", id, err))
		}
		assets = append(assets, asset)
	}

	schemas := make([]*entity.AnnotationSchema, 0, len(run.TargetSchemaIDs))
	for _, id := range run.TargetSchemaIDs {
		schema, err := s.SchemaRepo.Get(ctx, id)
		if err != nil {
			return s.failRun(ctx, run, fmt.Errorf("load schema %d: %w", id, err))
		}
		schemas = append(schemas, schema)
	}

	var failures int64
	parentContext := buildParentContextIndex(assets, run.ContextWindow)

	sem := make(chan struct{}, runParallelism)
	eg, egCtx := errgroup.WithContext(ctx)

	for _, asset := range assets {
		for _, schema := range schemas {
			asset, schema := asset, schema
			eg.Go(func() error {
				sem <- struct{}{}
				defer func() { <-sem }()

				_, err := s.Executor.Annotate(egCtx, asset, schema, run, parentContext[asset.ID])
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return err
					}
					atomic.AddInt64(&failures, 1)
					slog.Warn("annotation pair failed, continuing run",
						slog.Int64("run_id", run.ID), slog.Int64("asset_id", asset.ID),
						slog.Int64("schema_id", schema.ID), slog.String("error", err.Error()))
				}
				return nil
			})
		}
	}

	if err := eg.Wait(); err != nil {
		// Cancelled mid-run: leave it RUNNING, resumable by a later Execute call.
		return fmt.Errorf("run %d cancelled: %w", runID, err)
	}

	total := int64(len(assets) * len(schemas))
	switch {
	case failures == 0:
		err = run.Transition(entity.RunStatusCompleted)
	case failures == total:
		err = run.Transition(entity.RunStatusFailed)
		msg := fmt.Sprintf("all %d annotation pairs failed", total)
		run.ErrorMessage = &msg
	default:
		err = run.Transition(entity.RunStatusCompletedWithErrors)
	}
	if err != nil {
		return fmt.Errorf("transition run %d to terminal status: %w", runID, err)
	}

	return s.RunRepo.Update(ctx, run)
}

// Pause transitions a RUNNING run to PAUSED (spec §4.5: RUNNING ⇄ PAUSED).
func (s *Service) Pause(ctx context.Context, runID int64) error {
	run, err := s.RunRepo.Get(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run %d: %w", runID, err)
	}
	if err := run.Transition(entity.RunStatusPaused); err != nil {
		return err
	}
	return s.RunRepo.Update(ctx, run)
}

// Retry transitions a FAILED run back to PENDING, clearing ErrorMessage
// (spec §7: "Retries for failed runs reset status to PENDING").
func (s *Service) Retry(ctx context.Context, runID int64) error {
	run, err := s.RunRepo.Get(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run %d: %w", runID, err)
	}
	if err := run.Transition(entity.RunStatusPending); err != nil {
		return err
	}
	return s.RunRepo.Update(ctx, run)
}

func (s *Service) failRun(ctx context.Context, run *entity.AnnotationRun, cause error) error {
	msg := cause.Error()
	run.ErrorMessage = &msg
	if err := run.Transition(entity.RunStatusFailed); err == nil {
		_ = s.RunRepo.Update(ctx, run)
	}
	return cause
}

func resolveAssetIDs(run *entity.AnnotationRun) ([]int64, error) {
	raw, ok := run.Configuration["asset_ids"]
	if !ok {
		return nil, &entity.ValidationError{Field: "configuration.asset_ids", Message: "run has no target assets"}
	}
	switch v := raw.(type) {
	case []int64:
		return v, nil
	case []any:
		ids := make([]int64, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case int64:
				ids = append(ids, n)
			case float64:
				ids = append(ids, int64(n))
			default:
				return nil, fmt.Errorf("configuration.asset_ids contains non-numeric entry %T", item)
			}
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("configuration.asset_ids has unexpected type %T", raw)
	}
}

// buildParentContextIndex maps each asset to up to contextWindow sibling
// assets sharing the same ParentAssetID, the simplest reading of spec
// §4.5's "context_window" that needs no extra repository calls beyond the
// set already loaded for this run.
func buildParentContextIndex(assets []*entity.Asset, contextWindow int) map[int64][]*entity.Asset {
	index := make(map[int64][]*entity.Asset, len(assets))
	if contextWindow <= 0 {
		return index
	}

	byParent := make(map[int64][]*entity.Asset)
	for _, a := range assets {
		if a.ParentAssetID != nil {
			byParent[*a.ParentAssetID] = append(byParent[*a.ParentAssetID], a)
		}
	}

	for _, a := range assets {
		if a.ParentAssetID == nil {
			continue
		}
		siblings := byParent[*a.ParentAssetID]
		var ctxAssets []*entity.Asset
		for _, sib := range siblings {
			if sib.ID == a.ID {
				continue
			}
			if len(ctxAssets) >= contextWindow {
				break
			}
			ctxAssets = append(ctxAssets, sib)
		}
		index[a.ID] = ctxAssets
	}
	return index
}
