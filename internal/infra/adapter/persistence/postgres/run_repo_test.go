package postgres_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"infospace/internal/domain/entity"
	"infospace/internal/infra/adapter/persistence/postgres"
)

func runRow(r *entity.AnnotationRun) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uuid", "infospace_id", "user_id", "name", "status", "configuration",
		"target_schema_ids", "include_parent_context", "context_window", "error_message",
		"created_at", "updated_at", "completed_at",
	}).AddRow(
		r.ID, r.UUID, r.InfospaceID, r.UserID, r.Name, r.Status, []byte(`{}`),
		pq.Int64Array(r.TargetSchemaIDs), r.IncludeParentContext, r.ContextWindow, r.ErrorMessage,
		r.CreatedAt, r.UpdatedAt, r.CompletedAt,
	)
}

func TestRunRepo_Get(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	want := entity.NewAnnotationRun(1, 2, "batch", []int64{1, 2})
	want.ID = 9

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id`)).
		WithArgs(int64(9)).
		WillReturnRows(runRow(want))

	repo := postgres.NewRunRepo(db)
	got, err := repo.Get(context.Background(), 9)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got.Status != entity.RunStatusPending || got.Name != "batch" {
		t.Fatalf("unexpected run: %+v", got)
	}
	if len(got.TargetSchemaIDs) != 2 {
		t.Fatalf("expected 2 target schema ids, got %d", len(got.TargetSchemaIDs))
	}
}

func TestRunRepo_ListByStatus(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	want := entity.NewAnnotationRun(1, 2, "batch", nil)
	want.ID = 1

	mock.ExpectQuery(`FROM annotation_runs WHERE status`).
		WithArgs(entity.RunStatusPending).
		WillReturnRows(runRow(want))

	repo := postgres.NewRunRepo(db)
	got, err := repo.ListByStatus(context.Background(), entity.RunStatusPending)
	if err != nil || len(got) != 1 {
		t.Fatalf("ListByStatus err=%v len=%d", err, len(got))
	}
}

func TestRunRepo_Update(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	r := entity.NewAnnotationRun(1, 2, "batch", nil)
	r.ID = 1
	_ = r.Transition(entity.RunStatusRunning)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE annotation_runs`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewRunRepo(db)
	if err := repo.Update(context.Background(), r); err != nil {
		t.Fatalf("Update err=%v", err)
	}
}
