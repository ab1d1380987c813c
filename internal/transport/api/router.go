package api

import (
	"net/http"
	"time"

	"github.com/fsdevblog/groph-wallet/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	RouteGroup    = "/api"
	RegisterRoute = "/user/register"
	LoginRoute    = "/user/login"
	TopUpRoute    = "/topUp"
	TransferRoute = "/transfer"
	PurchaseRoute = "/purchase"
	BalanceRoute  = "/user/balance"
	HistoryRoute  = "/user/history"
)

// IdempotencyKeyHeader заголовок с ключом идемпотентности денежных операций.
const IdempotencyKeyHeader = "Idempotency-Key"

type RouterArgs struct {
	Logger             *logrus.Logger
	UserService        UserServicer
	AccountService     AccountServicer
	TransactionService TransactionServicer
	HistoryService     HistoryServicer
	JWTSecretKey       []byte
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors())

	r.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, errorResponse("method not allowed"))
	})
	r.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse("not found"))
	})

	authHandler := NewAuthHandler(args.UserService)
	walletHandler := NewWalletHandler(args.TransactionService)
	accountHandler := NewAccountHandler(args.AccountService, args.HistoryService)

	api := r.Group(RouteGroup)

	api.POST(RegisterRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Register)
	api.POST(LoginRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Login)

	api.Use(middlewares.AuthRequired(args.JWTSecretKey))
	// ниже все роуты группы требуют авторизованного пользователя.
	api.POST(TopUpRoute, walletHandler.TopUp)
	api.POST(TransferRoute, walletHandler.Transfer)
	api.POST(PurchaseRoute, walletHandler.Purchase)

	api.GET(BalanceRoute, accountHandler.Balance)
	api.GET(HistoryRoute, accountHandler.History)
	return r, nil
}
