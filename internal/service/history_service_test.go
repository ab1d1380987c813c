package service

import (
	"testing"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResolveCounterparty(t *testing.T) {
	peer := uuid.New()
	cases := []struct {
		name       string
		row        repoargs.HistoryRow
		wantEmail  string
		wantSystem bool
	}{
		{
			name: "credit from top up",
			row: repoargs.HistoryRow{
				Entry:              domain.LedgerEntry{EntryType: domain.EntryTypeCredit},
				Transaction:        domain.Transaction{Type: domain.TransactionTypeTopUp},
				InitiatorEmail:     "me@example.com",
				CounterpartyUserID: domain.SystemUserID,
				CounterpartyEmail:  domain.SystemUserEmail,
			},
			wantSystem: true,
		},
		{
			name: "credit from transfer",
			row: repoargs.HistoryRow{
				Entry:              domain.LedgerEntry{EntryType: domain.EntryTypeCredit},
				Transaction:        domain.Transaction{Type: domain.TransactionTypeTransfer},
				InitiatorEmail:     "sender@example.com",
				CounterpartyUserID: peer,
				CounterpartyEmail:  "sender@example.com",
			},
			wantEmail: "sender@example.com",
		},
		{
			name: "debit of purchase",
			row: repoargs.HistoryRow{
				Entry:              domain.LedgerEntry{EntryType: domain.EntryTypeDebit},
				Transaction:        domain.Transaction{Type: domain.TransactionTypePurchase},
				InitiatorEmail:     "me@example.com",
				CounterpartyUserID: peer,
				CounterpartyEmail:  "shop@example.com",
			},
			wantEmail: "shop@example.com",
		},
		{
			name: "debit of system account",
			row: repoargs.HistoryRow{
				Entry:              domain.LedgerEntry{EntryType: domain.EntryTypeDebit},
				Transaction:        domain.Transaction{Type: domain.TransactionTypeTopUp},
				InitiatorEmail:     "me@example.com",
				CounterpartyUserID: domain.SystemUserID,
				CounterpartyEmail:  domain.SystemUserEmail,
			},
			wantSystem: true,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			item := resolveCounterparty(tt.row)
			assert.Equal(t, tt.wantEmail, item.CounterpartyEmail)
			assert.Equal(t, tt.wantSystem, item.SystemOriginated)
		})
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultHistoryLimit, clampLimit(0))
	assert.Equal(t, uint(10), clampLimit(10))
	assert.Equal(t, MaxHistoryLimit, clampLimit(MaxHistoryLimit+1))
}
