package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/handle"
)

// RegisterTagRoutes 注册标签路由.
func RegisterTagRoutes(g *gin.RouterGroup) {
	tagRoutes := g.Group("/tags")

	{
		tagRoutes.GET("/suggest", handle.SuggestTags) // 标签建议，最多 20 条
	}
}
