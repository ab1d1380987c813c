package api

import (
	"errors"
	"net/http"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// getUserIDFromContext id пользователя, положенный middlewares.AuthRequired. Вызывается только на
// маршрутах под этим middleware.
func getUserIDFromContext(c *gin.Context) uuid.UUID {
	return c.MustGet(middlewares.UserIDContextKey).(uuid.UUID) //nolint:errcheck
}

// abortWithServiceErr отдает ошибку сервиса в формате ответа денежных операций. Отказы по бизнес-правилам
// дают 400 с текстом правила, остальные ошибки 500 с общим сообщением.
func abortWithServiceErr(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse("invalid amount"))
	case errors.Is(err, domain.ErrInsufficientFunds):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse("insufficient funds"))
	case errors.Is(err, domain.ErrRecipientNotFound):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse("recipient not found"))
	case errors.Is(err, domain.ErrMerchantNotFound):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse("merchant not found"))
	case errors.Is(err, domain.ErrSelfTransferNotAllowed):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse(domain.ErrSelfTransferNotAllowed.Error()))
	case errors.Is(err, domain.ErrAccountNotFound):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse("account not found"))
	case errors.Is(err, domain.ErrIdempotencyKeyConflict):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse(domain.ErrIdempotencyKeyConflict.Error()))
	case errors.Is(err, domain.ErrStorageUnavailable):
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse("service temporarily unavailable, retry later"))
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse("internal server error"))
	}
}

// checkSubject сверяет id пользователя из тела запроса с id из токена. Возвращает false и пишет ответ,
// если они не совпадают.
func checkSubject(c *gin.Context, bodyUserID string) (uuid.UUID, bool) {
	currentUserID := getUserIDFromContext(c)
	id, err := uuid.Parse(bodyUserID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse("invalid user id"))
		return uuid.Nil, false
	}
	if id != currentUserID {
		c.AbortWithStatusJSON(http.StatusForbidden, errorResponse("user id does not match the authorized user"))
		return uuid.Nil, false
	}
	return id, true
}
