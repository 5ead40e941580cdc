package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hotelbooking/internal/pkg/apperror"
)

type Envelope struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type ErrorEnvelope struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Detail  any    `json:"detail"`
}

func Success(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, Envelope{Data: data, Message: message, Status: statusCode})
}

func Error(c *gin.Context, statusCode int, message string, detail any) {
	c.JSON(statusCode, ErrorEnvelope{Message: message, Status: statusCode, Detail: detail})
}

func Abort(c *gin.Context, statusCode int, message string, detail any) {
	c.AbortWithStatusJSON(statusCode, ErrorEnvelope{Message: message, Status: statusCode, Detail: detail})
}

// FromError writes the envelope for err. Tagged errors map to their kind's status and
// carry the kind in detail; anything else is logged and answered with 500.
func FromError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		detail := gin.H{"code": appErr.Kind.String()}
		if appErr.Kind.Retryable() {
			detail["retryable"] = true
		}
		msg := appErr.Message
		if msg == "" {
			msg = appErr.Kind.String()
		}
		Error(c, appErr.HTTPStatus(), msg, detail)
		return
	}

	_ = c.Error(err)
	logrus.WithError(err).WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.FullPath(),
		"request_id": c.GetString("request_id"),
	}).Error("unhandled error")
	Error(c, http.StatusInternalServerError, "internal server error", gin.H{"code": apperror.KindUnknown.String()})
}
