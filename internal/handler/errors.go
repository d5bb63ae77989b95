package handler

import (
	"net/http"

	"backend/pkg/apperror"
)

// statusFor maps stable apperror codes onto HTTP status codes so every
// handler reports service failures the same way
func statusFor(err error) int {
	switch apperror.CodeOf(err) {
	case apperror.ErrNotFound.Code:
		return http.StatusNotFound
	case apperror.ErrPermissionDenied.Code:
		return http.StatusForbidden
	case apperror.ErrIllegalTransition.Code, apperror.ErrConcurrentModification.Code:
		return http.StatusConflict
	case "INTERNAL":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
