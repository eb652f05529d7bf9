package errors

import "net/http"

var (
	ErrSessionNotFound = New(
		"SESSION_NOT_FOUND",
		"Editor session not found",
		http.StatusNotFound,
	)

	ErrRouteNotFound = New(
		"ROUTE_NOT_FOUND",
		"Route not found",
		http.StatusNotFound,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidEdit = New(
		"INVALID_EDIT",
		"Edit is not applicable to the current route",
		http.StatusConflict,
	)

	ErrNothingToUndo = New(
		"NOTHING_TO_UNDO",
		"History is empty",
		http.StatusConflict,
	)

	ErrEmptyRoute = New(
		"EMPTY_ROUTE",
		"Route has no track points",
		http.StatusUnprocessableEntity,
	)

	ErrUnsupportedFormat = New(
		"UNSUPPORTED_FORMAT",
		"Unsupported export format",
		http.StatusBadRequest,
	)

	ErrRoutingError = New(
		"ROUTING_ERROR",
		"Routing engine request failed",
		http.StatusBadGateway,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
