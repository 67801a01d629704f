package response

import (
	"net/http"

	"wallet-signer/pkg/errno"

	"github.com/gin-gonic/gin"
)

// Response defines the standard JSON structure
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"msg"`
	Data    interface{} `json:"data"`
}

// Success returns a success response with data
func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = gin.H{} // Return empty object instead of null
	}
	c.JSON(http.StatusOK, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// Error returns an error response. Validation failures of the request are
// 400, failures inside the signing core are 422, everything else 500.
func Error(c *gin.Context, err error) {
	code, msg := errno.Decode(err)
	c.JSON(httpStatus(code), Response{
		Code:    code,
		Message: msg,
		Data:    gin.H{},
	})
}

func httpStatus(code int) int {
	switch {
	case code == errno.ErrBind.Code || code == errno.ErrUnsupportedChain.Code:
		return http.StatusBadRequest
	case code >= 30000 && code < 40000:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
