package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/handle"
)

// RegisterTrashRoutes 注册回收站相关路由.
func RegisterTrashRoutes(g *gin.RouterGroup) {
	trashRoutes := g.Group("/trash")

	{
		trashRoutes.GET("", handle.ListTrash) // 回收站列表

		docGroup := trashRoutes.Group("/:id")
		{
			docGroup.POST("/restore", handle.RestoreDocument) // 恢复文档
			docGroup.DELETE("", handle.PurgeDocument)         // 永久删除，不可逆
		}
	}
}
