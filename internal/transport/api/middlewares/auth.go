package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fsdevblog/groph-wallet/internal/service/tokens"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserIDContextKey ключ контекста gin, под которым лежит uuid.UUID авторизованного пользователя.
const UserIDContextKey = "currentUserID"

var errMissingToken = errors.New("missing bearer token")

// AuthRequired пропускает запрос только с валидным bearer токеном.
func AuthRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := checkAuthorization(c, secret)
		if err != nil {
			_ = c.Error(err)
			msg := "unauthorized"
			if errors.Is(err, tokens.ErrTokenExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": StatusError, "message": msg})
			return
		}
		c.Set(UserIDContextKey, userID)
		c.Next()
	}
}

// NonAuthRequired отклоняет запрос, если пользователь уже авторизован.
func NonAuthRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := checkAuthorization(c, secret); err == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"status": StatusError, "message": "already authorized"})
			return
		}
		c.Next()
	}
}

func checkAuthorization(c *gin.Context, secret []byte) (uuid.UUID, error) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return uuid.Nil, errMissingToken
	}
	userID, err := tokens.ValidateUserJWT(strings.TrimSpace(token), secret)
	if err != nil {
		return uuid.Nil, fmt.Errorf("check authorization: %w", err)
	}
	return userID, nil
}
