package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/configs"
)

// CORSMiddleware CORS 中间件.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowWebSockets = true
	config.AllowFiles = true
	config.AllowHeaders = append(config.AllowHeaders, "X-User", "X-Auth-Request-Email")
	// 身份由反向代理注入，接口层放开跨域
	config.AllowAllOrigins = true

	if cfg.Debug {
		config.AllowPrivateNetwork = true
	}

	return cors.New(config)
}
