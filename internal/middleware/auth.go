package middleware

import (
	"context"
	"errors"
	"sat_practice_backend/internal/config"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/util"
	"sat_practice_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ContextProfileKey = "profile"

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		cfg := c.MustGet(util.ContextConfigKey).(*config.Config)
		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret, cfg.JWT.Issuer)
		if err != nil {
			logger.Log.Debug("JWT parse failed", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(util.ContextUserKey, claims)
		c.Next()
	}
}

// ProfileProvider 读取用户资料（带缓存）
type ProfileProvider interface {
	Get(ctx context.Context, userID string) (*model.User, error)
}

// RoleMiddleware 角色以 profiles 表为准，令牌中的 role 只表示认证状态
func RoleMiddleware(profiles ProfileProvider, roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		profile, err := profiles.Get(c.Request.Context(), user.UserID())
		if err != nil {
			if errors.Is(err, util.ErrUserNotFound) {
				util.Forbidden(c)
			} else {
				util.LogInternalError(c, err)
			}
			c.Abort()
			return
		}

		hasRole := profile.IsAdmin()
		for _, role := range roles {
			if profile.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Set(ContextProfileKey, profile)
		c.Next()
	}
}

// ConfigMiddleware 把当前配置放入上下文
func ConfigMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(util.ContextConfigKey, cfg)
		c.Next()
	}
}
