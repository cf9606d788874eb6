package handler

import (
	"errors"
	"net/http"
	"strconv"

	"Bulletin_Board/internal/logger"
	"Bulletin_Board/internal/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusOf 业务错误到 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, pkg.ErrValidation), errors.Is(err, pkg.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, pkg.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, pkg.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, pkg.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pkg.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		if l := logger.GetGlobalLogger(); l != nil {
			l.WithContext(c.Request.Context()).Error("request failed", zap.Error(err))
		}
		c.JSON(status, gin.H{"msg": "internal error"})
		return
	}
	c.JSON(status, gin.H{"msg": err.Error()})
}

func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid " + name})
		return 0, false
	}
	return id, true
}
