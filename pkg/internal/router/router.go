// Package router 管理路由配置，将路径绑定到 handle 包的处理器.
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterAll 注册全部业务路由到 /api/v1.
func RegisterAll(engine *gin.Engine) {
	api := engine.Group("/api/v1")

	RegisterDocumentRoutes(api)
	RegisterTrashRoutes(api)
	RegisterTagRoutes(api)
	RegisterHealthCheckRoute(api)
	RegisterSchedulerRoutes(api)
}
