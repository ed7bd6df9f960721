package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/service"
	"github.com/yeisme/docvault/pkg/internal/types"
)

// CreateVersion 上传新版本（multipart，文件字段 file）.
func CreateVersion(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	var req types.CreateVersionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})

		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})

		return
	}
	defer f.Close()

	svc := service.NewDocumentService(c.Request.Context())

	resp, err := svc.CreateVersion(c.Request.Context(), user, c.Param("id"), req, f, fh.Filename, fh.Size)
	if err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusCreated, resp)
}

// History 版本历史，按版本号降序.
func History(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	svc := service.NewDocumentService(c.Request.Context())

	resp, err := svc.History(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetVersion 获取单个版本详情.
func GetVersion(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	svc := service.NewDocumentService(c.Request.Context())

	resp, err := svc.GetVersion(c.Request.Context(), user, c.Param("id"), c.Param("versionId"))
	if err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DownloadDocument 获取当前版本内容的预签名下载地址.
func DownloadDocument(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	svc := service.NewDocumentService(c.Request.Context())

	resp, err := svc.DownloadCurrentURL(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DownloadVersion 获取版本内容的预签名下载地址.
func DownloadVersion(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	svc := service.NewDocumentService(c.Request.Context())

	resp, err := svc.DownloadURL(c.Request.Context(), user, c.Param("id"), c.Param("versionId"))
	if err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteVersion 删除历史版本（当前版本与仅剩版本除外）.
func DeleteVersion(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	svc := service.NewDocumentService(c.Request.Context())

	if err := svc.DeleteVersion(c.Request.Context(), user, c.Param("id"), c.Param("versionId")); err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("versionId")})
}

// Rollback 将当前版本指针移回指定历史版本.
func Rollback(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	var req types.RollbackRequest
	if !bindAndValidate(c, &req) {
		return
	}

	svc := service.NewDocumentService(c.Request.Context())

	resp, err := svc.Rollback(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}
