// Package middleware 提供 gin 中间件.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/context"
	"github.com/yeisme/docvault/pkg/internal/storage"
)

// StorageMiddleware 将存储管理器注入请求上下文，service 层据此取客户端.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithStorageManager(c.Request.Context(), manager)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
