package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/service"
)

// DeleteDocument 将文档移入回收站（软删除）.
func DeleteDocument(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	svc := service.NewDocumentService(c.Request.Context())

	if err := svc.SoftDelete(c.Request.Context(), user, c.Param("id")); err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// ListTrash 回收站列表，含距永久删除的剩余天数.
func ListTrash(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	svc := service.NewDocumentService(c.Request.Context())

	resp, err := svc.ListTrash(c.Request.Context(), user, page, size)
	if err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// RestoreDocument 从回收站恢复文档.
func RestoreDocument(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	svc := service.NewDocumentService(c.Request.Context())

	if err := svc.Restore(c.Request.Context(), user, c.Param("id")); err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"restored": c.Param("id")})
}

// PurgeDocument 永久删除回收站内的文档，不可逆.
func PurgeDocument(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	svc := service.NewDocumentService(c.Request.Context())

	resp, err := svc.Purge(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}
