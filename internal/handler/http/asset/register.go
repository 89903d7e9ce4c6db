package asset

import (
	"net/http"

	"infospace/internal/handler/http/auth"
	"infospace/internal/handler/http/middleware"
	"infospace/internal/repository"
	"infospace/internal/usecase/ingest"
)

// Register registers all asset-related HTTP handlers with the given mux.
// Every route requires authentication; search-like listing is protected by
// rate limiting the same way internal/handler/http/source does.
func Register(mux *http.ServeMux, repo repository.AssetRepository, router *ingest.Router, searchRateLimiter *middleware.RateLimiter) {
	mux.Handle("GET    /assets", searchRateLimiter.Middleware(ListHandler{Repo: repo}))
	mux.Handle("GET    /assets/", GetHandler{Repo: repo})

	mux.Handle("POST   /assets/ingest", auth.Authz(IngestHandler{Router: router}))
	mux.Handle("POST   /assets/upload", auth.Authz(UploadHandler{Router: router}))
	mux.Handle("POST   /assets/bulk-delete", auth.Authz(BulkDeleteHandler{Repo: repo}))
	mux.Handle("DELETE /assets/", auth.Authz(DeleteHandler{Repo: repo}))
}
