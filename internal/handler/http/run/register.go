package run

import (
	"net/http"

	"infospace/internal/handler/http/auth"
	annotationUC "infospace/internal/usecase/annotation"
	bundleUC "infospace/internal/usecase/bundle"
)

// Register registers all annotation-run HTTP handlers with the given mux.
// Every route requires authentication.
func Register(mux *http.ServeMux, svc *annotationUC.Service, bundleSvc bundleUC.Service) {
	mux.Handle("GET    /runs", auth.Authz(ListHandler{svc}))
	mux.Handle("GET    /runs/", auth.Authz(GetHandler{svc}))
	mux.Handle("POST   /runs", auth.Authz(CreateHandler{Svc: svc, BundleSvc: bundleSvc}))

	mux.Handle("POST   /runs/{id}/execute", auth.Authz(ExecuteHandler{svc}))
	mux.Handle("POST   /runs/{id}/pause", auth.Authz(PauseHandler{svc}))
	mux.Handle("POST   /runs/{id}/retry", auth.Authz(RetryHandler{svc}))
}
