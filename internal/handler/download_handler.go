package handler

import (
	"net/http"
	"strconv"

	"Bulletin_Board/internal/pkg"
	"Bulletin_Board/internal/service"

	"github.com/gin-gonic/gin"
)

type DownloadHandler struct {
	svc *service.AttachmentService
}

func NewDownloadHandler(svc *service.AttachmentService) *DownloadHandler {
	return &DownloadHandler{svc: svc}
}

// Download 附件下载，文件名按原始名编码后返回
func (h *DownloadHandler) Download(c *gin.Context) {
	id, err := strconv.ParseUint(c.Query("no"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid no"})
		return
	}

	d, err := h.svc.Download(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer d.Content.Close()

	c.DataFromReader(http.StatusOK, -1, "application/octet-stream", d.Content, map[string]string{
		"Content-Disposition": pkg.ContentDisposition(d.OriginalName),
	})
}
