// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/secondlife-exchange/exchange/pkg/auth"
	"github.com/secondlife-exchange/exchange/pkg/httpx"
	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
	matchingdomain "github.com/secondlife-exchange/exchange/services/matching/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Defaults to 500 Internal Server Error for unrecognized errors, whose
// message is replaced by the status text.
func WriteError(w http.ResponseWriter, err error) {
	status := mapErrorToStatus(err)
	httpx.JSONError(w, status, httpx.SafeError(err, status, true))
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized // 401
	case errors.Is(err, itemdomain.ErrNotItemOwner):
		return http.StatusForbidden // 403
	case errors.Is(err, itemdomain.ErrItemNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, itemdomain.ErrItemAlreadyExists),
		errors.Is(err, itemdomain.ErrInvalidStatusTransition):
		return http.StatusConflict // 409
	case errors.Is(err, itemdomain.ErrInvalidItem),
		errors.Is(err, itemdomain.ErrInvalidCategory),
		errors.Is(err, itemdomain.ErrInvalidCondition),
		errors.Is(err, itemdomain.ErrInvalidStatus),
		errors.Is(err, matchingdomain.ErrInvalidPreferences),
		errors.Is(err, matchingdomain.ErrConflictingPreferences):
		return http.StatusUnprocessableEntity // 422
	default:
		return http.StatusInternalServerError // 500
	}
}
