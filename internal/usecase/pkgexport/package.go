// Package pkgexport builds and imports self-describing ZIP packages
// (manifest.json + files/) for transferring Assets, Sources, AnnotationSchemas,
// AnnotationRuns, Bundles, curated Datasets, and ad hoc Mixed exports between
// infospaces, with UUID-based conflict resolution on import (spec §4.9).
package pkgexport

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ResourceType identifies which entity a Package's content describes.
type ResourceType string

const (
	ResourceTypeAsset   ResourceType = "ASSET"
	ResourceTypeSource  ResourceType = "SOURCE"
	ResourceTypeSchema  ResourceType = "SCHEMA"
	ResourceTypeRun     ResourceType = "RUN"
	ResourceTypeBundle  ResourceType = "BUNDLE"
	// ResourceTypeDataset is a named, curated collection of existing Bundles,
	// AnnotationRuns and AnnotationSchemas (spec §4.9.2 "Dataset"). Nothing in
	// the domain model persists a Dataset as its own entity, so a Dataset
	// package is assembled on demand from explicit id lists rather than
	// loaded from a repository.
	ResourceTypeDataset ResourceType = "DATASET"
	// ResourceTypeMixed is an ad hoc export of standalone Assets and Bundles
	// sharing no common parent (spec §4.9.2 "Mixed").
	ResourceTypeMixed ResourceType = "MIXED"
)

const formatVersion = "1.0"

// Metadata is the package_type/source_entity envelope every package carries,
// independent of the type-specific content payload.
type Metadata struct {
	PackageUUID      string       `json:"package_uuid"`
	PackageType      ResourceType `json:"package_type"`
	FormatVersion    string       `json:"format_version"`
	CreatedAt        time.Time    `json:"created_at"`
	Description      string       `json:"description,omitempty"`
	SourceInstanceID string       `json:"source_instance_id"`
	SourceEntityUUID string       `json:"source_entity_uuid"`
	SourceEntityID   int64        `json:"source_entity_id,omitempty"`
	SourceEntityName string       `json:"source_entity_name,omitempty"`
}

// newMetadata stamps a fresh Metadata envelope for a just-built package.
func newMetadata(pkgType ResourceType, entityUUID string, entityID int64, entityName, instanceID, description string) Metadata {
	return Metadata{
		PackageUUID:      uuid.New().String(),
		PackageType:      pkgType,
		FormatVersion:    formatVersion,
		CreatedAt:        time.Now().UTC(),
		Description:      description,
		SourceInstanceID: instanceID,
		SourceEntityUUID: entityUUID,
		SourceEntityID:   entityID,
		SourceEntityName: entityName,
	}
}

// Package is a self-contained unit of transfer: a Metadata envelope, a
// type-specific Content payload (deferred-decoded, since its shape depends on
// Metadata.PackageType), and any blob Files referenced from within Content.
type Package struct {
	Metadata Metadata
	Content  json.RawMessage
	Files    map[string][]byte
}

type manifest struct {
	Metadata Metadata        `json:"metadata"`
	Content  json.RawMessage `json:"content"`
}

// ToZip serializes p as manifest.json + files/<name> into w.
func (p *Package) ToZip(w io.Writer) error {
	zw := zip.NewWriter(w)

	manifestBytes, err := json.MarshalIndent(manifest{Metadata: p.Metadata, Content: p.Content}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	mf, err := zw.Create("manifest.json")
	if err != nil {
		return fmt.Errorf("create manifest.json entry: %w", err)
	}
	if _, err := mf.Write(manifestBytes); err != nil {
		return fmt.Errorf("write manifest.json: %w", err)
	}

	for path, content := range p.Files {
		if !strings.HasPrefix(path, "files/") {
			continue
		}
		ff, err := zw.Create(path)
		if err != nil {
			return fmt.Errorf("create %s entry: %w", path, err)
		}
		if _, err := ff.Write(content); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	return zw.Close()
}

// ToZipBytes is a convenience wrapper returning the serialized archive bytes.
func (p *Package) ToZipBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.ToZip(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromZip reads a Package out of a ZIP archive. Per spec §4.9.1, if every
// entry in the archive shares one top-level directory, that directory is
// stripped as a prefix before locating manifest.json and files/.
func FromZip(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open package zip: %w", err)
	}

	prefix := detectRootPrefix(zr.File)

	var m *manifest
	files := map[string][]byte{}
	filesDir := prefix + "files/"

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch {
		case f.Name == prefix+"manifest.json":
			data, err := readZipFile(f)
			if err != nil {
				return nil, fmt.Errorf("read manifest.json: %w", err)
			}
			var decoded manifest
			if err := json.Unmarshal(data, &decoded); err != nil {
				return nil, fmt.Errorf("decode manifest.json: %w", err)
			}
			m = &decoded
		case strings.HasPrefix(f.Name, filesDir):
			data, err := readZipFile(f)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", f.Name, err)
			}
			relative := strings.TrimPrefix(f.Name, prefix)
			files[relative] = data
		}
	}

	if m == nil {
		return nil, fmt.Errorf("archive has no manifest.json at root or single top-level directory")
	}

	return &Package{Metadata: m.Metadata, Content: m.Content, Files: files}, nil
}

// detectRootPrefix returns "<dir>/" when every entry in files shares exactly
// one top-level directory component, else "".
func detectRootPrefix(files []*zip.File) string {
	if len(files) == 0 {
		return ""
	}
	roots := map[string]struct{}{}
	for _, f := range files {
		name := strings.TrimSuffix(f.Name, "/")
		if name == "" {
			continue
		}
		root := strings.SplitN(name, "/", 2)[0]
		roots[root] = struct{}{}
	}
	if len(roots) != 1 {
		return ""
	}
	var root string
	for r := range roots {
		root = r
	}
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		if !strings.HasPrefix(f.Name, root+"/") {
			return ""
		}
	}
	return root + "/"
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
