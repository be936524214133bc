package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
)

// pageParam reads ?page=, defaulting to 1
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// pathID reads a numeric {id} path value
func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", apperrors.ErrNotFound, r.PathValue("id"))
	}
	return id, nil
}

// formInt reads a numeric form or query field. Empty and malformed values are validation errors
// naming the field.
func formInt(r *http.Request, field, label string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", apperrors.ErrValidation, label)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a whole number", apperrors.ErrValidation, label)
	}
	return n, nil
}

// formInts reads every value of a repeated numeric field
func formInts(r *http.Request, field string) ([]int, error) {
	values := r.Form[field]
	out := make([]int, 0, len(values))
	for _, v := range values {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a valid selection", apperrors.ErrValidation, v)
		}
		out = append(out, n)
	}
	return out, nil
}
