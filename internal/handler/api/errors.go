package api

import (
	"context"
	"errors"

	"MarketDash/internal/services/upstream"
	"MarketDash/internal/usecase"
	xhttp "MarketDash/pkg/http"
)

// toAppError maps use case and upstream failures onto HTTP errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound):
		return xhttp.NotFoundError("session not found").WithError(err)
	case errors.Is(err, usecase.ErrArchiveDisabled):
		return xhttp.NotFoundError("decision archive is not enabled").WithError(err)
	}
	if ue, ok := upstream.AsError(err); ok {
		switch {
		case ue.Timeout:
			return xhttp.GatewayTimeoutError("market backend timed out").WithParam("endpoint", ue.Endpoint).WithError(err)
		case ue.NotFound():
			return xhttp.NotFoundError("no data available").WithParam("endpoint", ue.Endpoint).WithError(err)
		case ue.ClientSide():
			return xhttp.UnprocessableError("market backend rejected the request").
				WithParam("endpoint", ue.Endpoint).WithParam("upstream_status", ue.Status).WithError(err)
		default:
			return xhttp.UpstreamError("market backend unavailable").WithParam("endpoint", ue.Endpoint).WithError(err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return xhttp.GatewayTimeoutError("request timed out").WithError(err)
	}
	return xhttp.InternalError("something went wrong").WithError(err)
}
