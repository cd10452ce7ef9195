package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"hoaportal/pkg/api/handlers"
	"hoaportal/pkg/auth"
	"hoaportal/pkg/telemetry"
)

// Options carries the pieces the handler layer needs from the app.
type Options struct {
	Sessions  *auth.Manager
	MaxUpload int64
}

// Handler builds the /v1 API router. Authentication is applied outside,
// by the gateway middleware; route-level role checks live with the
// routes themselves.
func Handler(opts Options) http.Handler {
	r := mux.NewRouter()
	r.Use(telemetry.Middleware)

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterAuth(v1, opts.Sessions)
	handlers.RegisterOwners(v1)
	handlers.RegisterAccounts(v1)
	handlers.RegisterMessages(v1)
	handlers.RegisterAnnouncements(v1)
	handlers.RegisterSurveys(v1)
	handlers.RegisterDocuments(v1, opts.MaxUpload)
	return r
}
