package handlers

import (
	"errors"
	"net/http"

	booking "github.com/vridhi-nahata/ServeGo-Backend/services/booking"
	payment "github.com/vridhi-nahata/ServeGo-Backend/services/payment"
	"github.com/vridhi-nahata/ServeGo-Backend/utils"

	"github.com/gin-gonic/gin"
)

// respondError translates a domain error into its HTTP representation.
// Validation 400, authorization 403, slot conflict 409, unmet precondition
// 412, unknown booking 404, signature mismatch 400, collaborator outage 502.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *booking.ValidationError
		authErr       *booking.AuthorizationError
		conflictErr   *booking.SlotConflictError
		precondErr    *booking.PreconditionError
		notFoundErr   *booking.NotFoundError
		signatureErr  *payment.SignatureError
		externalErr   *booking.ExternalServiceError
	)

	switch {
	case errors.As(err, &validationErr):
		utils.JSONError(c, http.StatusBadRequest, validationErr.Message, "")
	case errors.As(err, &authErr):
		utils.JSONError(c, http.StatusForbidden, authErr.Message, "")
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{
			"message":      conflictErr.Error(),
			"blockingSlot": conflictErr.Blocking,
		})
	case errors.As(err, &precondErr):
		utils.JSONError(c, http.StatusPreconditionFailed, precondErr.Message, "")
	case errors.As(err, &notFoundErr):
		utils.JSONError(c, http.StatusNotFound, notFoundErr.Error(), "")
	case errors.As(err, &signatureErr):
		utils.JSONError(c, http.StatusBadRequest, signatureErr.Message, "")
	case errors.As(err, &externalErr):
		utils.JSONError(c, http.StatusBadGateway, "A dependent service is unavailable, please retry", externalErr.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}
