// Package pkgexport exposes Builder/Importer over HTTP: one export endpoint
// per resource type returning a downloadable ZIP, and a single import
// endpoint accepting an uploaded ZIP (spec §4.9).
package pkgexport

import (
	"fmt"
	"net/http"

	"infospace/internal/handler/http/pathutil"
	"infospace/internal/handler/http/respond"
	"infospace/internal/usecase/pkgexport"
)

// boolQuery reads an "all false unless explicitly set" query flag, matching
// the off-by-default posture of every Build*Options field.
func boolQuery(r *http.Request, key string) bool {
	v := r.URL.Query().Get(key)
	return v == "1" || v == "true"
}

func writeZip(w http.ResponseWriter, pkg interface {
	ToZipBytes() ([]byte, error)
}, filename string) {
	data, err := pkg.ToZipBytes()
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type ExportAssetHandler struct{ Builder *pkgexport.Builder }

// ServeHTTP exports a single Asset as a downloadable package.
// @Summary      Export asset package
// @Tags         pkgexport
// @Security     BearerAuth
// @Param        id path int true "Asset ID"
// @Param        include_text_content_as_file query bool false "inline text_content as a file"
// @Param        include_annotations query bool false "inline the asset's annotations"
// @Param        include_justifications query bool false "inline annotation justifications"
// @Produce      application/zip
// @Success      200 {file} byte "package ZIP"
// @Failure      400 {string} string "Bad request"
// @Router       /export/assets/{id} [get]
func (h ExportAssetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/export/assets/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	pkg, err := h.Builder.BuildAsset(r.Context(), id, pkgexport.BuildAssetOptions{
		IncludeTextContentAsFile: boolQuery(r, "include_text_content_as_file"),
		IncludeAnnotations:       boolQuery(r, "include_annotations"),
		IncludeJustifications:    boolQuery(r, "include_justifications"),
	})
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	writeZip(w, pkg, fmt.Sprintf("asset-%d.zip", id))
}

type ExportSourceHandler struct{ Builder *pkgexport.Builder }

// ServeHTTP exports a Source and, optionally, its linked Assets.
// @Summary      Export source package
// @Tags         pkgexport
// @Security     BearerAuth
// @Param        id path int true "Source ID"
// @Param        include_assets query bool false "inline linked assets"
// @Produce      application/zip
// @Success      200 {file} byte "package ZIP"
// @Failure      400 {string} string "Bad request"
// @Router       /export/sources/{id} [get]
func (h ExportSourceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/export/sources/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	pkg, err := h.Builder.BuildSource(r.Context(), id, pkgexport.BuildSourceOptions{
		IncludeAssets: boolQuery(r, "include_assets"),
	})
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	writeZip(w, pkg, fmt.Sprintf("source-%d.zip", id))
}

type ExportSchemaHandler struct{ Builder *pkgexport.Builder }

// ServeHTTP exports a single AnnotationSchema version.
// @Summary      Export schema package
// @Tags         pkgexport
// @Security     BearerAuth
// @Param        id path int true "Schema ID"
// @Produce      application/zip
// @Success      200 {file} byte "package ZIP"
// @Failure      400 {string} string "Bad request"
// @Router       /export/schemas/{id} [get]
func (h ExportSchemaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/export/schemas/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	pkg, err := h.Builder.BuildSchema(r.Context(), id)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	writeZip(w, pkg, fmt.Sprintf("schema-%d.zip", id))
}

type ExportRunHandler struct{ Builder *pkgexport.Builder }

// ServeHTTP exports an AnnotationRun, optionally inlining its Annotations.
// @Summary      Export run package
// @Tags         pkgexport
// @Security     BearerAuth
// @Param        id path int true "Run ID"
// @Param        include_annotations query bool false "inline annotations"
// @Param        include_justifications query bool false "inline annotation justifications"
// @Produce      application/zip
// @Success      200 {file} byte "package ZIP"
// @Failure      400 {string} string "Bad request"
// @Router       /export/runs/{id} [get]
func (h ExportRunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/export/runs/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	pkg, err := h.Builder.BuildRun(r.Context(), id, pkgexport.BuildRunOptions{
		IncludeAnnotations:    boolQuery(r, "include_annotations"),
		IncludeJustifications: boolQuery(r, "include_justifications"),
	})
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	writeZip(w, pkg, fmt.Sprintf("run-%d.zip", id))
}

type ExportBundleHandler struct{ Builder *pkgexport.Builder }

// ServeHTTP exports a Bundle as asset references, optionally embedding each
// referenced Asset's full content.
// @Summary      Export bundle package
// @Tags         pkgexport
// @Security     BearerAuth
// @Param        id path int true "Bundle ID"
// @Param        include_assets_content query bool false "inline full asset content"
// @Param        include_asset_annotations query bool false "inline each asset's annotations"
// @Produce      application/zip
// @Success      200 {file} byte "package ZIP"
// @Failure      400 {string} string "Bad request"
// @Router       /export/bundles/{id} [get]
func (h ExportBundleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/export/bundles/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	pkg, err := h.Builder.BuildBundle(r.Context(), id, pkgexport.BuildBundleOptions{
		IncludeAssetsContent:    boolQuery(r, "include_assets_content"),
		IncludeAssetAnnotations: boolQuery(r, "include_asset_annotations"),
	})
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	writeZip(w, pkg, fmt.Sprintf("bundle-%d.zip", id))
}

type ExportDatasetHandler struct{ Builder *pkgexport.Builder }

// ServeHTTP assembles a Dataset package from explicit bundle/run/schema id
// lists, since no Dataset entity is persisted.
// @Summary      Export dataset package
// @Tags         pkgexport
// @Security     BearerAuth
// @Accept       json
// @Param        dataset body object true "fields: name, description, bundle_ids, run_ids, schema_ids, include_assets_content, include_asset_annotations"
// @Produce      application/zip
// @Success      200 {file} byte "package ZIP"
// @Failure      400 {string} string "Bad request"
// @Router       /export/datasets [post]
func (h ExportDatasetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                    string  `json:"name"`
		Description             string  `json:"description"`
		BundleIDs               []int64 `json:"bundle_ids"`
		RunIDs                  []int64 `json:"run_ids"`
		SchemaIDs               []int64 `json:"schema_ids"`
		IncludeAssetsContent    bool    `json:"include_assets_content"`
		IncludeAssetAnnotations bool    `json:"include_asset_annotations"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	pkg, err := h.Builder.BuildDataset(r.Context(), req.Name, req.Description, pkgexport.BuildDatasetOptions{
		BundleIDs:               req.BundleIDs,
		RunIDs:                  req.RunIDs,
		SchemaIDs:               req.SchemaIDs,
		IncludeAssetsContent:    req.IncludeAssetsContent,
		IncludeAssetAnnotations: req.IncludeAssetAnnotations,
	})
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	writeZip(w, pkg, "dataset.zip")
}

type ExportMixedHandler struct{ Builder *pkgexport.Builder }

// ServeHTTP assembles an ad hoc export of standalone Assets and Bundles that
// share no common parent.
// @Summary      Export mixed package
// @Tags         pkgexport
// @Security     BearerAuth
// @Accept       json
// @Param        mixed body object true "fields: asset_ids, bundle_ids, include_assets_content, include_asset_annotations"
// @Produce      application/zip
// @Success      200 {file} byte "package ZIP"
// @Failure      400 {string} string "Bad request"
// @Router       /export/mixed [post]
func (h ExportMixedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssetIDs                []int64 `json:"asset_ids"`
		BundleIDs               []int64 `json:"bundle_ids"`
		IncludeAssetsContent    bool    `json:"include_assets_content"`
		IncludeAssetAnnotations bool    `json:"include_asset_annotations"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	pkg, err := h.Builder.BuildMixed(r.Context(), pkgexport.BuildMixedOptions{
		AssetIDs:                req.AssetIDs,
		BundleIDs:               req.BundleIDs,
		IncludeAssetsContent:    req.IncludeAssetsContent,
		IncludeAssetAnnotations: req.IncludeAssetAnnotations,
	})
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	writeZip(w, pkg, "mixed.zip")
}
