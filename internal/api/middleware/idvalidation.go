// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/portfolio-ledger/internal/api/response"
	"github.com/ndewijer/portfolio-ledger/internal/validation"
)

// ValidateIDParam validates that the named URL parameter is present and is a
// user-scoped id. Returns 400 Bad Request if it is missing or malformed.
//
// Example usage in router:
//
//	r.Route("/{id}", func(r chi.Router) {
//	    r.Use(middleware.ValidateIDParam("id"))
//	    r.Patch("/", handler.UpdateFeeProfile)
//	})
func ValidateIDParam(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, param)

			if id == "" {
				response.RespondError(w, r, http.StatusBadRequest, param+" is required", nil)
				return
			}

			if err := validation.ValidateID(id); err != nil {
				response.RespondError(w, r, http.StatusBadRequest, "invalid "+param, err.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
