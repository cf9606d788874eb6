package middleware

import (
	"context"
	"net/http"
	"strings"

	"Bulletin_Board/internal/logger"
	"Bulletin_Board/internal/model"
	"Bulletin_Board/internal/pkg"
	"Bulletin_Board/internal/service"

	"github.com/gin-gonic/gin"
)

const ContextPrincipalKey = "principal"

// Principal 当前请求的登录身份
type Principal struct {
	UserID   uint64
	Username string
	Role     model.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

// PrincipalFrom 在 AuthMiddleware 之后调用
func PrincipalFrom(c *gin.Context) Principal {
	v, _ := c.Get(ContextPrincipalKey)
	p, _ := v.(Principal)
	return p
}

func AuthMiddleware(issuer *pkg.TokenIssuer, tokens service.TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization format"})
			return
		}
		tokenStr := strings.TrimSpace(parts[1])

		claims, err := issuer.ParseAccess(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
			return
		}
		role, err := model.ParseRole(claims.Role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
			return
		}

		// redis校验是否是正确的token
		ctx := c.Request.Context()
		originToken, err := tokens.GetUserToken(ctx, claims.UserID)
		if err != nil || originToken != tokenStr {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Account has been logging elsewhere"})
			return
		}

		// 校验通过后更新过期时间
		if err := tokens.ExtendUserToken(ctx, claims.UserID); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
			return
		}

		c.Set(ContextPrincipalKey, Principal{
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     role,
		})
		c.Request = c.Request.WithContext(context.WithValue(ctx, logger.UsernameKey, claims.Username))
		c.Next()
	}
}

// RequireAdmin 按角色校验，必须挂在 AuthMiddleware 之后
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !PrincipalFrom(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"msg": "admin only"})
			return
		}
		c.Next()
	}
}
