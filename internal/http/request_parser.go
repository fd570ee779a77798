// This file holds the helpers that turn path, query and body data into
// domain values.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"backoffice/internal/core"
	"backoffice/internal/documents"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxBodyBytes     = 1 << 20
	defaultSyncLimit = 50
	maxSyncLimit     = 500
)

// decodeJSON reads a single JSON value into dst, rejecting unknown fields and
// bodies over 1 MiB.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is empty", errBadRequest)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: request body exceeds %d bytes", errBadRequest, maxErr.Limit)
		default:
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must hold a single JSON value", errBadRequest)
	}
	return nil
}

func parseKindParam(r *http.Request) (documents.Kind, error) {
	return documents.ParseKind(chi.URLParam(r, "kind"))
}

func parseIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

func parseUserIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid user id %q", errBadRequest, raw)
	}
	return id, nil
}

// parseCurrency reads the optional currency query parameter. Empty means
// the caller's default.
func parseCurrency(r *http.Request) (core.Currency, error) {
	raw := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency")))
	if raw == "" {
		return "", nil
	}
	c := core.Currency(raw)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unsupported currency %q", errBadRequest, raw)
	}
	return c, nil
}

// parseLimit reads the limit query parameter, clamped to [1, maxSyncLimit].
func parseLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return defaultSyncLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: invalid limit %q", errBadRequest, raw)
	}
	if n > maxSyncLimit {
		n = maxSyncLimit
	}
	return n, nil
}

// bearerToken extracts the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
