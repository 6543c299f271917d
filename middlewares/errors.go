package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mach-lagbe/apperrors"
)

const exposeErrorsKey = "exposeErrors"

// ErrorHandler turns panics into the 500 envelope. With exposeDetails set,
// internal failures also carry the underlying message.
func ErrorHandler(log logrus.FieldLogger, exposeDetails bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(exposeErrorsKey, exposeDetails)
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logrus.Fields{
					"request_id": c.GetString(RequestIDKey),
					"panic":      r,
				}).Error("Recovered from panic")
				RespondError(c, apperrors.Internal("Something went wrong!", fmt.Errorf("panic: %v", r)))
			}
		}()
		c.Next()
	}
}

// RespondError writes err using the {success:false,error} envelope and
// aborts the chain.
func RespondError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal("Something went wrong!", err)
	}
	body := gin.H{"success": false, "error": appErr.Message}
	if appErr.Kind == apperrors.KindInternal && appErr.Err != nil {
		_ = c.Error(appErr.Err)
		if c.GetBool(exposeErrorsKey) {
			body["message"] = appErr.Err.Error()
		}
	}
	c.AbortWithStatusJSON(appErr.Kind.HTTPStatus(), body)
}

// NotFoundHandler answers unknown routes.
func NotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Route not found"})
}
