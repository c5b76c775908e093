// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"quill-ai-go/internal/model"
	"quill-ai-go/internal/repository"
	"quill-ai-go/internal/service"
	"quill-ai-go/pkg/log"
	"quill-ai-go/pkg/token"

	"github.com/gin-gonic/gin"
)

const (
	userKey   = "user"
	claimsKey = "claims"
	tokenKey  = "token"
)

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 只接受 access token；已登出（在黑名单中）的 token 被拒绝。blacklist 可以为 nil。
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService, blacklist repository.TokenBlacklistRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "请求未包含授权头"})
			return
		}

		// Token 以 "Bearer <token>" 的形式提供
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效的授权头格式"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		claims, err := jwtManager.VerifyTyped(tokenString, token.TypeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效或已过期的 token"})
			return
		}

		if blacklist != nil {
			revoked, err := blacklist.Contains(c.Request.Context(), tokenString)
			if err != nil {
				// Redis 不可用时按未吊销处理
				log.Warnf("检查 token 黑名单失败: %v", err)
			} else if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token 已失效，请重新登录"})
				return
			}
		}

		// 使用 claims 中的用户名从数据库获取完整的用户信息
		user, err := userService.GetProfile(c.Request.Context(), claims.Username)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "用户不存在"})
			return
		}

		c.Set(userKey, user)
		c.Set(claimsKey, claims)
		c.Set(tokenKey, tokenString)
		c.Next()
	}
}

// CurrentUser 返回 AuthMiddleware 存入上下文的用户。
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*model.User)
	return u, ok
}

// CurrentToken 返回本次请求使用的 access token。
func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}
