package api

import (
	"context"
	"errors"
	"net/http"

	"Coinverge/internal/domain/models"
	xhttp "Coinverge/pkg/http"
)

// toAppError maps usecase and upstream failures to HTTP errors.
func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrSuperseded):
		return xhttp.ConflictError("Search superseded by a newer query").WithError(err)
	case errors.Is(err, models.ErrWatchlistBusy):
		return xhttp.ConflictError("Watchlist is busy, retry shortly").WithError(err)
	case errors.Is(err, models.ErrServiceUnavailable):
		return xhttp.ServiceUnavailableError("Upstream price service is unavailable: " + err.Error()).WithError(err)
	case errors.Is(err, xhttp.ErrCanceled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_CANCELED", "", "Request canceled", http.StatusRequestTimeout).WithError(err)
	case errors.Is(err, xhttp.ErrNotFound),
		errors.Is(err, xhttp.ErrRateLimited),
		errors.Is(err, xhttp.ErrHTTPStatus),
		errors.Is(err, xhttp.ErrTimeout),
		errors.Is(err, xhttp.ErrNetwork),
		errors.Is(err, xhttp.ErrInvalidShape),
		errors.Is(err, xhttp.ErrRetriesExhausted),
		errors.Is(err, xhttp.ErrUnclassified):
		return xhttp.BadGatewayError("Upstream price service failed: " + err.Error()).WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
