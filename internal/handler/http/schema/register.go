package schema

import (
	"net/http"

	"infospace/internal/handler/http/auth"
	schemaUC "infospace/internal/usecase/schema"
)

// Register registers all schema-related HTTP handlers with the given mux.
// Every route requires authentication.
func Register(mux *http.ServeMux, svc schemaUC.Service) {
	mux.Handle("GET    /schemas", auth.Authz(ListHandler{svc}))
	mux.Handle("GET    /schemas/", auth.Authz(GetHandler{svc}))
	mux.Handle("POST   /schemas", auth.Authz(CreateHandler{svc}))
	mux.Handle("PUT    /schemas/", auth.Authz(UpdateHandler{svc}))
	mux.Handle("DELETE /schemas/", auth.Authz(DeleteHandler{svc}))
}
