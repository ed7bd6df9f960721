package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/handle"
)

// RegisterDocumentRoutes 注册文档与版本路由.
func RegisterDocumentRoutes(g *gin.RouterGroup) {
	docs := g.Group("/documents")

	{
		// ===== 文档管理 =====
		docs.POST("", handle.CreateDocument) // 创建文档（含首个版本）
		docs.GET("", handle.ListDocuments)   // 文档列表

		docGroup := docs.Group("/:id")
		{
			docGroup.GET("", handle.GetDocument)       // 文档详情（ID 或 short_id）
			docGroup.PATCH("", handle.UpdateDocument)  // 更新元数据
			docGroup.DELETE("", handle.DeleteDocument) // 软删除进入回收站

			docGroup.POST("/tags", handle.AttachTags)          // 附加标签
			docGroup.GET("/download", handle.DownloadDocument) // 当前版本预签名下载

			// ===== 版本管理 =====
			versions := docGroup.Group("/versions")
			{
				versions.POST("", handle.CreateVersion) // 上传新版本
				versions.GET("", handle.History)        // 版本历史（降序）

				versions.GET("/:versionId", handle.GetVersion)               // 版本详情
				versions.GET("/:versionId/download", handle.DownloadVersion) // 预签名下载
				versions.DELETE("/:versionId", handle.DeleteVersion)         // 删除历史版本
			}

			docGroup.POST("/rollback", handle.Rollback) // 回滚到历史版本
		}
	}
}
