// Package annotation runs AnnotationSchemas against Assets using a
// language-model provider, validating each result against the schema's
// output_contract and recording per-field Justifications (spec §4.5, §4.6).
package annotation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/provider/llm"
	"infospace/internal/repository"
)

// Generator is the subset of ModelRegistryService the executor needs,
// narrowed to a single method so tests can substitute a fake provider
// without constructing a real registry.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerationRequest) (*llm.GenerationResponse, error)
}

// Executor applies one AnnotationSchema to one Asset: it builds the prompt,
// calls the model, validates the structured result, and persists the
// Annotation plus any Justifications the model's reasoning trace yields.
type Executor struct {
	Generator        Generator
	AnnotationRepo   repository.AnnotationRepository
	DefaultModelName string
}

// Annotate runs schema against asset within run, optionally prefixing the
// prompt with parentContext (spec §4.5 include_parent_context/context_window).
// On a ProviderError or a schema-validation failure the annotation is
// persisted with status FAILED and the error is returned so the caller can
// continue the run rather than abort it (spec §7: "ProviderError ... run
// continues").
func (e *Executor) Annotate(ctx context.Context, asset *entity.Asset, schema *entity.AnnotationSchema, run *entity.AnnotationRun, parentContext []*entity.Asset) (*entity.Annotation, error) {
	ann := entity.NewAnnotation(asset.ID, schema.ID, run.ID)

	compiled, err := compileOutputContract(schema.OutputContract)
	if err != nil {
		return e.fail(ctx, ann, fmt.Errorf("invalid output_contract for schema %d: %w", schema.ID, err))
	}

	req := llm.GenerationRequest{
		Messages:       buildMessages(asset, schema, run, parentContext),
		ModelName:      e.modelName(run),
		ResponseFormat: schema.OutputContract,
		MaxTokens:      4096,
	}

	slog.Debug("annotation generate starting",
		slog.Int64("asset_id", asset.ID), slog.Int64("schema_id", schema.ID), slog.Int64("run_id", run.ID))

	resp, err := e.Generator.Generate(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return e.fail(ctx, ann, ctx.Err())
		}
		return e.fail(ctx, ann, &entity.ProviderError{Provider: req.ModelName, Reason: err.Error()})
	}

	value, err := parseContent(resp.Content)
	if err != nil {
		return e.fail(ctx, ann, fmt.Errorf("parse model output for schema %d: %w", schema.ID, err))
	}

	if err := validateValue(compiled, value); err != nil {
		return e.fail(ctx, ann, fmt.Errorf("annotation value failed schema validation: %w", err))
	}

	ann.Value = value
	ann.Status = entity.AnnotationStatusSuccess
	if err := e.AnnotationRepo.Upsert(ctx, ann); err != nil {
		return nil, fmt.Errorf("save annotation for asset %d/schema %d: %w", asset.ID, schema.ID, err)
	}

	if justifications := buildJustifications(ann.ID, resp); len(justifications) > 0 {
		if err := e.AnnotationRepo.CreateJustifications(ctx, justifications); err != nil {
			return ann, fmt.Errorf("save justifications for annotation %d: %w", ann.ID, err)
		}
	}

	slog.Info("annotation generate succeeded",
		slog.Int64("asset_id", asset.ID), slog.Int64("schema_id", schema.ID), slog.Int64("run_id", run.ID))

	return ann, nil
}

func (e *Executor) fail(ctx context.Context, ann *entity.Annotation, cause error) (*entity.Annotation, error) {
	msg := cause.Error()
	ann.Status = entity.AnnotationStatusFailed
	ann.ErrorMessage = &msg
	if err := e.AnnotationRepo.Upsert(ctx, ann); err != nil {
		slog.Error("failed to persist failed annotation", slog.String("error", err.Error()))
	}
	slog.Warn("annotation generate failed", slog.Int64("asset_id", ann.AssetID), slog.Int64("schema_id", ann.SchemaID), slog.String("error", msg))
	return ann, cause
}

func (e *Executor) modelName(run *entity.AnnotationRun) string {
	if name, ok := run.Configuration["model_name"].(string); ok && name != "" {
		return name
	}
	return e.DefaultModelName
}

// buildMessages assembles the system instructions plus the asset's content,
// prefixed with up to ContextWindow parent/sibling assets when requested.
func buildMessages(asset *entity.Asset, schema *entity.AnnotationSchema, run *entity.AnnotationRun, parentContext []*entity.Asset) []llm.Message {
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: schema.Instructions},
	}

	var body strings.Builder
	if run.IncludeParentContext && len(parentContext) > 0 {
		body.WriteString("Context from related assets:\n")
		for _, ctxAsset := range parentContext {
			body.WriteString("- ")
			body.WriteString(ctxAsset.Title)
			if ctxAsset.TextContent != nil {
				body.WriteString(": ")
				body.WriteString(*ctxAsset.TextContent)
			}
			body.WriteString("\n")
		}
		body.WriteString("\n")
	}

	body.WriteString("Asset: ")
	body.WriteString(asset.Title)
	body.WriteString("\n")
	if asset.TextContent != nil {
		body.WriteString(*asset.TextContent)
	} else if asset.SourceIdentifier != nil {
		body.WriteString(*asset.SourceIdentifier)
	}

	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: body.String()})
	return msgs
}

// parseContent decodes a GenerationResponse's Content into Metadata. Per
// spec §4.6, providers without native structured output emulate it via a
// synthetic `extract` tool whose arguments become Content as a JSON string;
// providers with native JSON mode return the same shape directly.
func parseContent(content string) (entity.Metadata, error) {
	var value entity.Metadata
	if err := json.Unmarshal([]byte(content), &value); err != nil {
		return nil, fmt.Errorf("model output is not a JSON object: %w", err)
	}
	return value, nil
}

// buildJustifications turns a GenerationResponse's thinking trace into one
// Justification per annotation, since the provider layer does not (yet)
// return field-scoped reasoning for every schema field individually.
func buildJustifications(annotationID int64, resp *llm.GenerationResponse) []*entity.Justification {
	var out []*entity.Justification
	for _, thought := range resp.ThinkingBefore {
		if thought == "" {
			continue
		}
		model := resp.ModelUsed
		out = append(out, &entity.Justification{
			AnnotationID: annotationID,
			Reasoning:    thought,
			ModelName:    &model,
		})
	}
	return out
}
