package handle

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/service"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/rule"
)

// CreateDocument 创建文档（multipart，文件字段 file）.
// 携带文件时同时写入版本 1；不带文件创建空文档，指针留空.
func CreateDocument(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	var req types.CreateDocumentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var (
		file     io.Reader
		fileName string
		fileSize int64
	)

	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})

			return
		}
		defer f.Close()

		file, fileName, fileSize = f, fh.Filename, fh.Size
	}

	svc := service.NewDocumentService(c.Request.Context())

	resp, err := svc.CreateDocument(c.Request.Context(), user, req, file, fileName, fileSize)
	if err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListDocuments 文档列表，scope=active(默认)/deleted/all.
func ListDocuments(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	var req types.ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewDocumentService(c.Request.Context())

	resp, err := svc.ListDocuments(c.Request.Context(), user, req)
	if err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetDocument 按 ID 或 short_id 获取文档详情.
func GetDocument(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	svc := service.NewDocumentService(c.Request.Context())

	resp, err := svc.GetDocument(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateDocument 更新文档元数据，不产生新版本.
func UpdateDocument(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	var req types.UpdateDocumentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	svc := service.NewDocumentService(c.Request.Context())

	resp, err := svc.UpdateDocument(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// AttachTags 为文档附加标签（get-or-create）.
func AttachTags(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	var req types.AttachTagsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	svc := service.NewDocumentService(c.Request.Context())

	resp, err := svc.AttachTags(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// SuggestTags 标签建议，最多 20 条.
func SuggestTags(c *gin.Context) {
	user := requireUser(c)
	if user == "" {
		return
	}

	var req types.SuggestTagsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewDocumentService(c.Request.Context())

	resp, err := svc.SuggestTags(c.Request.Context(), user, req)
	if err != nil {
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}
