// Package handlers adapts HTTP requests to the ledger service. Handlers parse
// and validate the request, call one service operation and map the result or
// error to a JSON response.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ndewijer/portfolio-ledger/internal/api/middleware"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// parseJSON decodes the request body into a T. Unknown fields are ignored.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, errEmptyBody
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, errEmptyBody
		}
		return v, fmt.Errorf("decode request body: %w", err)
	}
	return v, nil
}

// userID returns the caller resolved by middleware.UserID.
func userID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
