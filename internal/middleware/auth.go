package middleware

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/config"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/repositories"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/utils"
)

// InitCasdoor configures the global casdoor client from service config.
func InitCasdoor(cfg *config.Config) {
	casdoorsdk.InitConfig(
		cfg.CasdoorEndpoint,
		cfg.CasdoorClientID,
		cfg.CasdoorClientSecret,
		cfg.CasdoorCertificate,
		cfg.CasdoorOrganization,
		cfg.CasdoorApplication,
	)
}

// Auth validates the bearer token against casdoor and stores the caller
// identity in the request context. The local user row is upserted so role
// checks in the service layer always see a current record.
func Auth(userRepo repositories.UserRepository, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Authorization header missing or malformed",
			})
			return
		}

		claims, err := casdoorsdk.ParseJwtToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token",
			})
			return
		}

		userID := claims.User.Id
		if userID == "" {
			userID = claims.User.Name
		}
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Token carries no subject",
			})
			return
		}

		role := roleFromClaims(claims)
		user := &models.User{
			ID:       userID,
			FullName: claims.User.DisplayName,
			Email:    claims.User.Email,
			Role:     role,
			IsActive: !claims.User.IsForbidden,
		}
		if err := userRepo.Upsert(c.Request.Context(), user); err != nil {
			// Identity is already proven by the token; a failed sync only
			// degrades role freshness.
			logger.Warn("Failed to sync user from token", "user_id", userID, "error", err)
		}

		c.Set("user_id", userID)
		c.Set("user_role", string(role))
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authorization := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(authorization) <= len(prefix) || !strings.EqualFold(authorization[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(authorization[len(prefix):])
	return token, token != ""
}

func roleFromClaims(claims *casdoorsdk.Claims) models.UserRole {
	if claims.User.IsAdmin {
		return models.RoleAdmin
	}
	for _, r := range claims.User.Roles {
		switch strings.ToLower(r.Name) {
		case "admin":
			return models.RoleAdmin
		case "teacher", "instructor":
			return models.RoleTeacher
		}
	}
	if strings.EqualFold(claims.User.Tag, "teacher") {
		return models.RoleTeacher
	}
	return models.RoleStudent
}
