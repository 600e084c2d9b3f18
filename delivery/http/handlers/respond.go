package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/powerwolf1/bigData/shared/common"
)

// ErrorResponse is the JSON error envelope every handler returns.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// respondError maps an error to its HTTP status and writes the envelope.
func respondError(c *gin.Context, err error) {
	if appErr := common.GetAppError(err); appErr != nil {
		c.JSON(appErr.StatusCode, ErrorResponse{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    string(common.ErrCodeInternal),
		Message: "internal server error",
	})
}
