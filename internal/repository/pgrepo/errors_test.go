package pgrepo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/suite"
)

type ConvertErrTestSuite struct {
	suite.Suite
}

func TestConvertErrSuite(t *testing.T) {
	suite.Run(t, new(ConvertErrTestSuite))
}

func (s *ConvertErrTestSuite) TestNil() {
	s.NoError(convertErr(nil, "noop"))
}

func (s *ConvertErrTestSuite) TestClassification() {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: domain.ErrRecordNotFound},
		{name: "unique", err: &pgconn.PgError{Code: "23505"}, want: domain.ErrDuplicateKey},
		{
			name: "balance check",
			err:  &pgconn.PgError{Code: "23514", ConstraintName: "accounts_balance_non_negative"},
			want: domain.ErrInsufficientFunds,
		},
		{
			name: "other check",
			err:  &pgconn.PgError{Code: "23514", ConstraintName: "transactions_amount_check"},
			want: domain.ErrUnknown,
		},
		{name: "serialization", err: &pgconn.PgError{Code: "40001"}, want: domain.ErrStorageUnavailable},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: domain.ErrStorageUnavailable},
		{name: "connection", err: &pgconn.PgError{Code: "08006"}, want: domain.ErrStorageUnavailable},
		{name: "numeric overflow", err: &pgconn.PgError{Code: "22003"}, want: domain.ErrInvalidAmount},
		{name: "timeout", err: context.DeadlineExceeded, want: domain.ErrStorageUnavailable},
		{
			name: "wrapped timeout",
			err:  fmt.Errorf("query accounts: %w", context.DeadlineExceeded),
			want: domain.ErrStorageUnavailable,
		},
		{name: "canceled", err: context.Canceled, want: domain.ErrStorageUnavailable},
		{name: "plain", err: errors.New("boom"), want: domain.ErrUnknown},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := convertErr(tt.err, "doing %s", tt.name)
			s.Require().ErrorIs(err, tt.want)
			s.Contains(err.Error(), "[repository/doing "+tt.name+"]")
		})
	}
}
