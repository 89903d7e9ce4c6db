package bundle

import (
	"net/http"

	"infospace/internal/handler/http/auth"
	bundleUC "infospace/internal/usecase/bundle"
)

// Register registers all bundle-related HTTP handlers with the given mux.
// Every route requires authentication (bundles have no public listing,
// unlike sources).
func Register(mux *http.ServeMux, svc bundleUC.Service) {
	mux.Handle("GET    /bundles", auth.Authz(ListHandler{svc}))
	mux.Handle("GET    /bundles/", auth.Authz(GetHandler{svc}))
	mux.Handle("POST   /bundles", auth.Authz(CreateHandler{svc}))
	mux.Handle("PUT    /bundles/", auth.Authz(UpdateHandler{svc}))
	mux.Handle("DELETE /bundles/", auth.Authz(DeleteHandler{svc}))

	mux.Handle("POST   /bundles/{id}/assets", auth.Authz(AddAssetsHandler{svc}))
	mux.Handle("DELETE /bundles/{id}/assets", auth.Authz(RemoveAssetsHandler{svc}))
}
