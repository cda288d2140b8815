package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/koinoniahq/koinonia/errors"
)

// JSON writes a uniform response envelope. err may be nil, a plain
// error or an *errors.Error carrying its own status.
func JSON(c *gin.Context, message string, status int, data interface{}, err error) {
	errMessage := ""
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			status = e.Status
			errMessage = e.Message
		} else {
			errMessage = err.Error()
		}
	}

	responseData := gin.H{
		"message": message,
		"data":    data,
		"errors":  errMessage,
		"status":  http.StatusText(status),
	}
	c.JSON(status, responseData)
}
