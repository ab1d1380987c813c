package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const StatusError = "error"

func statusErrorText(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not found"
	case http.StatusMethodNotAllowed:
		return "method not allowed"
	case http.StatusConflict:
		return "conflict"
	default:
		return "internal server error"
	}
}

// Errors превращает первую ошибку контекста в тело {"status": "error", "message": ...}. Публичные ошибки
// отдаются с исходным текстом, остальные только с текстом статуса. Если обработчик уже записал тело,
// ничего не делает.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// AbortWithError уже отправил заголовки, поэтому проверяется только размер тела.
		if len(c.Errors) == 0 || c.Writer.Size() > 0 {
			return
		}

		// обрабатываем только первую ошибку
		firstErr := c.Errors[0]
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}

		var msg string
		if firstErr.IsType(gin.ErrorTypePublic) || firstErr.IsType(gin.ErrorTypeBind) {
			msg = firstErr.Error()
		} else {
			msg = statusErrorText(status)
		}

		c.JSON(status, gin.H{"status": StatusError, "message": msg})
		c.Abort()
	}
}
