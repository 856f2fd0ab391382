package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-house/internal/auctionerrors"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, auctionerrors.ErrNoOffers):
		return http.StatusNotFound, "no offers found"
	case errors.Is(err, auctionerrors.ErrValidation):
		return http.StatusBadRequest, "validation failed"
	case errors.Is(err, auctionerrors.ErrAuthentication):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, auctionerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid username or password"
	case errors.Is(err, auctionerrors.ErrAuthorization):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, auctionerrors.ErrInvalidState):
		return http.StatusConflict, "auction is not active"
	case errors.Is(err, auctionerrors.ErrUserExists):
		return http.StatusConflict, "username already taken"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondError writes the JSON envelope for a service error. Internal failures
// never expose their cause to the client.
func RespondError(c *gin.Context, handlerName string, err error, ctx map[string]any) {
	status, message := MapErrorToHTTP(err)

	fields := map[string]any{"handler": handlerName, "error": err.Error()}
	for k, v := range ctx {
		fields[k] = v
	}

	switch {
	case status == http.StatusInternalServerError:
		utils.JSONError(c, status, errors.New(message), message)
		utils.Error(handlerName+": request failed", fields)
	case auctionerrors.FieldErrors(err) != nil:
		utils.JSONFieldErrors(c, status, err, message, auctionerrors.FieldErrors(err))
		utils.Warn(handlerName+": request rejected", fields)
	default:
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn(handlerName+": request rejected", fields)
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
