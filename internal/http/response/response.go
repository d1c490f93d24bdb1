package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/vici-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondErr renders err through its apierr shape. Only Message reaches the
// client; the cause is attached to the gin context for the request logger.
func RespondErr(c *gin.Context, err error) {
	ae := apierr.From(err)
	if ae == nil {
		ae = apierr.Internal(nil)
	}
	if ae.Err != nil {
		_ = c.Error(ae.Err)
	}
	msg := ae.Message
	if msg == "" {
		msg = http.StatusText(ae.Status)
	}
	c.AbortWithStatusJSON(ae.Status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    ae.Code,
		},
	})
}

// RespondInvalid reports a request body or parameter that failed binding.
// Validator detail is logged, not returned.
func RespondInvalid(c *gin.Context, err error) {
	RespondErr(c, &apierr.Error{
		Status:  http.StatusBadRequest,
		Code:    apierr.CodeBadRequest,
		Message: "Invalid request",
		Err:     err,
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
