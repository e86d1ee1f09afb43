package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"

	"github.com/dmitrijs2005/openflag/internal/common"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// codeFrom maps a domain error kind to its HTTP status.
func codeFrom(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return stdhttp.StatusNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		// duplicates stay a server error for compatibility with existing clients
		return stdhttp.StatusInternalServerError
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return stdhttp.StatusUnauthorized
	case errors.Is(err, common.ErrorValidation):
		return stdhttp.StatusUnprocessableEntity
	case errors.Is(err, common.ErrorUnavailable):
		return stdhttp.StatusServiceUnavailable
	default:
		return stdhttp.StatusInternalServerError
	}
}

// detailFrom returns the message shown to the caller. Errors outside the
// domain taxonomy are not echoed.
func detailFrom(err error) string {
	for _, known := range []error{
		common.ErrorNotFound,
		common.ErrorAlreadyExists,
		common.ErrorUnauthorized,
		common.ErrInvalidToken,
		common.ErrTokenExpired,
		common.ErrorValidation,
		common.ErrorUnavailable,
	} {
		if errors.Is(err, known) {
			return err.Error()
		}
	}
	return common.ErrorInternal.Error()
}

func encodeError(_ context.Context, err error, w stdhttp.ResponseWriter) {
	code := codeFrom(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if code == stdhttp.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Detail: detailFrom(err)})
}
