package gateway

import (
	"errors"
	"net/http"

	"github.com/example/tableorder/pkg/api"
	"github.com/example/tableorder/pkg/cart"
	"github.com/example/tableorder/pkg/order"
	"github.com/example/tableorder/pkg/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const networkMessage = "Unable to reach the ordering service. Please try again."

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func failure(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message})
}

// statusFor maps an error to the HTTP status the kiosk reports.
func statusFor(err error) int {
	var backend *api.BackendError
	switch {
	case order.IsValidation(err),
		errors.Is(err, cart.ErrInvalidLine),
		errors.Is(err, session.ErrInvalidTable),
		errors.Is(err, session.ErrUsernameRequired):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, order.ErrSubmissionInFlight):
		return http.StatusConflict
	case api.IsNetwork(err):
		return http.StatusServiceUnavailable
	case errors.As(err, &backend):
		if backend.Status >= 400 && backend.Status < 500 {
			return backend.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (g *Gateway) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	switch {
	case status == http.StatusServiceUnavailable:
		message = networkMessage
	case status == http.StatusInternalServerError:
		g.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		message = "Something went wrong"
	}

	var backend *api.BackendError
	if errors.As(err, &backend) {
		message = backend.Message
	}
	failure(c, status, message)
}
