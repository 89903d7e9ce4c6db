package pkgexport_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"

	"infospace/internal/domain/entity"
)

var testCtx = context.Background()

// bytesReader is a small convenience for seeding fakeStorage in tests.
func bytesReader(s string) io.Reader {
	return strings.NewReader(s)
}

// newTestAsset persists a simple TEXT asset with some text content, for
// tests that don't care about blob handling.
func newTestAsset(deps *testDeps, infospaceID int64, parentID *int64, sourceID *int64) *entity.Asset {
	text := "hello world"
	asset := &entity.Asset{
		UUID:             uuid.New(),
		InfospaceID:      infospaceID,
		UserID:           1,
		Kind:             entity.AssetKindText,
		Title:            "Test Asset",
		ParentAssetID:    parentID,
		SourceID:         sourceID,
		TextContent:      &text,
		ProcessingStatus: entity.ProcessingStatusReady,
	}
	if err := deps.Assets.Create(testCtx, asset); err != nil {
		panic(err)
	}
	return asset
}

// rewrapUnderRootDir rewrites zipBytes so every entry is nested one level
// deeper under rootName/, simulating what a file manager's "compress" does
// when you zip a single extracted directory.
func rewrapUnderRootDir(t *testing.T, zipBytes []byte, rootName string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		t.Fatalf("open source zip: %v", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		w, err := zw.Create(rootName + "/" + f.Name)
		if err != nil {
			t.Fatalf("create entry %s: %v", f.Name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write entry %s: %v", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
