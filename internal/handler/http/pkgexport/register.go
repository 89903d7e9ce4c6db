package pkgexport

import (
	"net/http"

	"infospace/internal/handler/http/auth"
	"infospace/internal/usecase/pkgexport"
)

// Register registers every export/import HTTP handler with the given mux.
// Every route requires authentication.
func Register(mux *http.ServeMux, builder *pkgexport.Builder, deps pkgexport.Dependencies) {
	mux.Handle("GET  /export/assets/", auth.Authz(ExportAssetHandler{builder}))
	mux.Handle("GET  /export/sources/", auth.Authz(ExportSourceHandler{builder}))
	mux.Handle("GET  /export/schemas/", auth.Authz(ExportSchemaHandler{builder}))
	mux.Handle("GET  /export/runs/", auth.Authz(ExportRunHandler{builder}))
	mux.Handle("GET  /export/bundles/", auth.Authz(ExportBundleHandler{builder}))
	mux.Handle("POST /export/datasets", auth.Authz(ExportDatasetHandler{builder}))
	mux.Handle("POST /export/mixed", auth.Authz(ExportMixedHandler{builder}))

	mux.Handle("POST /import", auth.Authz(ImportHandler{Deps: deps}))
}
