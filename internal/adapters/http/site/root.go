// Package site serves the embedded front-end.
package site

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
)

// Register attaches the front-end to r. It claims every path, so it must be
// registered after the API routes.
func Register(_ context.Context, r *mux.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.PathPrefix("/").Handler(http.FileServer(FS())).Methods(http.MethodGet, http.MethodHead)
}
