// Package handle 提供 HTTP 请求处理器的实现.
package handle

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/service"
	nlog "github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/rule"
)

// checkUser 提取操作者身份：Header 优先 -> query 参数 -> 非 Release 模式默认 test 用户.
func checkUser(c *gin.Context) (string, error) {
	user := c.GetHeader("X-User")
	if user == "" {
		user = c.GetHeader("X-Auth-Request-Email")
	}

	if user == "" {
		user = c.Query("user")
	}

	if user == "" && gin.Mode() != gin.ReleaseMode {
		user = "test-user@example.com"
	}

	user = strings.TrimSpace(user)

	if err := rule.ValidateVar(user, "required,email"); err != nil {
		return "", err
	}

	return user, nil
}

// requireUser 校验失败时直接写 400 并返回空串.
func requireUser(c *gin.Context) string {
	user, err := checkUser(c)
	if user == "" || err != nil {
		nlog.Logger().Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return ""
	}

	return user
}

// writeServiceError 将服务层错误类别映射为 HTTP 状态码.
// 越权与不存在统一返回 404，避免暴露资源存在性.
func writeServiceError(c *gin.Context, err error) {
	switch service.KindOf(err) {
	case service.KindNotFound, service.KindPermissionDenied:
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case service.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case service.KindStateConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		nlog.Logger().Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// bindAndValidate 绑定请求体并执行 rule 校验.
func bindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return false
	}

	if err := rule.ValidateStruct(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return false
	}

	return true
}
