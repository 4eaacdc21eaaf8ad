package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/boutique/internal/domain"
)

// ErrInvalidJSON is returned for request bodies that do not decode.
var ErrInvalidJSON = domain.Errorf(domain.EINVALID, "", "Request body must be valid JSON")

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; all we can do is log.
		slog.Default().Error("failed to encode response", "error", err)
	}
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.Errorf(domain.ETOOLARGE, "", "Request body too large")
		}
		if errors.Is(err, io.EOF) {
			return ErrInvalidJSON
		}
		return domain.WrapError(err, domain.EINVALID, "", ErrInvalidJSON.Error())
	}
	return nil
}

// PathID parses the {name} path value as a positive int64.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found")
	}
	return id, nil
}

// Money renders an amount as a two-decimal string.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
