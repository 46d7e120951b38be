package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
)

// StatusFor maps a kernel result code to an HTTP status.
func StatusFor(code kernel.Code) int {
	switch code {
	case kernel.CodeOK:
		return http.StatusOK
	case kernel.CodeInvalidParam:
		return http.StatusBadRequest
	case kernel.CodeNotInitialized, kernel.CodeAlreadyInitialized:
		return http.StatusConflict
	case kernel.CodeOutOfMemory:
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	resp := ErrorResponse{
		Success: false,
		Error:   err.Error(),
		Code:    int32(kernel.CodeOf(err)),
	}
	var kerr *kernel.Error
	if errors.As(err, &kerr) {
		resp.Op = kerr.Op
		resp.Detail = kerr.Detail
	}

	_ = c.Error(err)
	c.JSON(StatusFor(kernel.Code(resp.Code)), resp)
}

func invalidRequest(op string, err error) error {
	return kernel.NewError(op, kernel.CodeInvalidParam, "invalid request: %v", err)
}
