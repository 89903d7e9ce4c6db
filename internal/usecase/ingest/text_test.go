package ingest_test

import (
	"context"
	"testing"

	"infospace/internal/domain/entity"
	"infospace/internal/usecase/ingest"
)

func TestTextHandler_CreatesReadyTextAsset(t *testing.T) {
	repo := &fakeAssetRepo{}
	h := &ingest.TextHandler{AssetRepo: repo}

	assets, err := h.Handle(context.Background(), 1, 1, "", "some pasted text", ingest.DefaultOptions())
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(assets))
	}
	a := assets[0]
	if a.Kind != entity.AssetKindText {
		t.Errorf("expected TEXT kind, got %s", a.Kind)
	}
	if a.TextContent == nil || *a.TextContent != "some pasted text" {
		t.Error("expected TextContent to hold the pasted text")
	}
	if a.ProcessingStatus != entity.ProcessingStatusReady {
		t.Errorf("expected READY status, got %s", a.ProcessingStatus)
	}
	if a.Title != "Pasted text" {
		t.Errorf("expected default title, got %q", a.Title)
	}
}
