package api

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/logger"
	"github.com/fsdevblog/groph-wallet/internal/service"
	"github.com/fsdevblog/groph-wallet/internal/service/tokens"
	"github.com/fsdevblog/groph-wallet/internal/transport/api/mocks"
	"github.com/fsdevblog/groph-wallet/internal/transport/api/testutils"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AccountHandlerTestSuite struct {
	suite.Suite
	router         *gin.Engine
	mockAccountSvc *mocks.MockAccountServicer
	mockHistorySvc *mocks.MockHistoryServicer
	jwtSecret      []byte
	userID         uuid.UUID
	userToken      string
}

func TestAccountHandlerSuite(t *testing.T) {
	suite.Run(t, new(AccountHandlerTestSuite))
}

func (s *AccountHandlerTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())

	s.mockAccountSvc = mocks.NewMockAccountServicer(mockCtrl)
	s.mockHistorySvc = mocks.NewMockHistoryServicer(mockCtrl)
	s.jwtSecret = []byte("super secret key")

	router, err := New(RouterArgs{
		Logger:             logger.New(io.Discard),
		UserService:        mocks.NewMockUserServicer(mockCtrl),
		AccountService:     s.mockAccountSvc,
		TransactionService: mocks.NewMockTransactionServicer(mockCtrl),
		HistoryService:     s.mockHistorySvc,
		JWTSecretKey:       s.jwtSecret,
	})
	s.Require().NoError(err)
	s.router = router

	s.userID = uuid.New()
	token, tokenErr := tokens.GenerateUserJWT(s.userID, time.Hour, s.jwtSecret)
	s.Require().NoError(tokenErr)
	s.userToken = token
}

func (s *AccountHandlerTestSuite) get(url, token string) *http.Response {
	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    url,
	}, testutils.WithBearer(token))
	s.Require().NoError(err)
	return res
}

func (s *AccountHandlerTestSuite) TestBalance() {
	s.mockAccountSvc.EXPECT().GetBalance(gomock.Any(), s.userID).
		Return(&domain.Account{ID: 3, UserID: s.userID, Currency: "PHP", Balance: decimal.NewFromInt(40)}, nil).
		Times(1)

	res := s.get(RouteGroup+BalanceRoute, s.userToken)
	var response BalanceResponse
	s.Require().NoError(testutils.DecodeBody(res, &response))

	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal(statusSuccess, response.Status)
	s.Equal("40.00", response.Balance)
	s.Equal("PHP", response.Currency)

	s.Run("not authorized", func() {
		res := s.get(RouteGroup+BalanceRoute, "")
		s.Require().NoError(res.Body.Close())
		s.Equal(http.StatusUnauthorized, res.StatusCode)
	})

	s.Run("expired token", func() {
		expired, err := tokens.GenerateUserJWT(s.userID, -time.Minute, s.jwtSecret)
		s.Require().NoError(err)

		res := s.get(RouteGroup+BalanceRoute, expired)
		var response StatusResponse
		s.Require().NoError(testutils.DecodeBody(res, &response))
		s.Equal(http.StatusUnauthorized, res.StatusCode)
		s.Equal("token expired", response.Message)
	})

	s.Run("account missing", func() {
		s.mockAccountSvc.EXPECT().GetBalance(gomock.Any(), s.userID).
			Return(nil, domain.ErrAccountNotFound).Times(1)

		res := s.get(RouteGroup+BalanceRoute, s.userToken)
		s.Require().NoError(res.Body.Close())
		s.Equal(http.StatusBadRequest, res.StatusCode)
	})
}

func (s *AccountHandlerTestSuite) TestHistory() {
	now := time.Now().UTC().Truncate(time.Second)
	items := []domain.HistoryItem{
		{
			Entry: domain.LedgerEntry{
				ID: 9, CreatedAt: now, TransactionID: 5, EntryType: domain.EntryTypeDebit,
				Amount: decimal.NewFromInt(60),
			},
			Transaction: domain.Transaction{
				ID: 5, Type: domain.TransactionTypeTransfer, Status: domain.TransactionStatusCompleted,
			},
			CounterpartyEmail: "bob@example.com",
		},
		{
			Entry: domain.LedgerEntry{
				ID: 4, CreatedAt: now, TransactionID: 2, EntryType: domain.EntryTypeCredit,
				Amount: decimal.NewFromInt(100),
			},
			Transaction: domain.Transaction{
				ID: 2, Type: domain.TransactionTypeTopUp, Status: domain.TransactionStatusCompleted,
			},
			SystemOriginated: true,
		},
	}

	s.mockHistorySvc.EXPECT().
		ListEntries(gomock.Any(), service.ListHistoryArgs{UserID: s.userID}).
		Return(items, nil).Times(1)
	s.mockHistorySvc.EXPECT().
		ListEntries(gomock.Any(), service.ListHistoryArgs{UserID: s.userID, Limit: 2, BeforeEntryID: 10}).
		DoAndReturn(func(_ context.Context, _ service.ListHistoryArgs) ([]domain.HistoryItem, error) {
			return items, nil
		}).Times(1)

	s.Run("default page", func() {
		res := s.get(RouteGroup+HistoryRoute, s.userToken)
		var response HistoryResponse
		s.Require().NoError(testutils.DecodeBody(res, &response))

		s.Equal(http.StatusOK, res.StatusCode)
		s.Require().Len(response.Items, 2)
		s.Nil(response.NextBefore)

		s.Equal(int64(9), response.Items[0].EntryID)
		s.Equal("DEBIT", response.Items[0].EntryType)
		s.Equal("TRANSFER", response.Items[0].Type)
		s.Equal("60.00", response.Items[0].Amount)
		s.Equal("bob@example.com", response.Items[0].Counterparty)

		s.Equal(domain.SystemCounterpartyLabel, response.Items[1].Counterparty)
		s.True(response.Items[1].SystemOriginated)
		s.Equal(now.Format(time.RFC3339), response.Items[1].CreatedAt)
	})

	s.Run("full page has cursor", func() {
		res := s.get(RouteGroup+HistoryRoute+"?limit=2&before=10", s.userToken)
		var response HistoryResponse
		s.Require().NoError(testutils.DecodeBody(res, &response))

		s.Equal(http.StatusOK, res.StatusCode)
		s.Require().NotNil(response.NextBefore)
		s.Equal(int64(4), *response.NextBefore)
	})

	s.Run("bad query", func() {
		for _, query := range []string{"?limit=abc", "?limit=-1", "?limit=201", "?before=-1"} {
			res := s.get(RouteGroup+HistoryRoute+query, s.userToken)
			s.Require().NoError(res.Body.Close())
			s.Equal(http.StatusBadRequest, res.StatusCode, query)
		}
	})
}
