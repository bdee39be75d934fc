package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/deposit/account"
	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/record"
	"github.com/xraph/deposit/settlement"
	"github.com/xraph/deposit/store"
	"github.com/xraph/deposit/types"
)

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	s := New()

	acct := account.New(id.NewAccountID())
	_, err := s.GetAccount(ctx, acct.ID)
	assert.ErrorIs(t, err, store.ErrAccountNotFound)

	acct.Free = 100
	require.NoError(t, s.PutAccount(ctx, acct))

	got, err := s.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Balance(100), got.Free)

	// Returned values are copies.
	got.Free = 1
	again, err := s.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Balance(100), again.Free)

	require.NoError(t, s.PutAccount(ctx, account.New(id.NewAccountID())))
	all, err := s.ListAccounts(ctx, account.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	first, err := s.ListAccounts(ctx, account.ListOpts{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, first, 1)

	require.NoError(t, s.DeleteAccount(ctx, acct.ID))
	_, err = s.GetAccount(ctx, acct.ID)
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
	assert.ErrorIs(t, s.DeleteAccount(ctx, acct.ID), store.ErrAccountNotFound)
}

func TestPageBounds(t *testing.T) {
	items := []int{1, 2, 3}

	tests := []struct {
		name          string
		offset, limit int
		want          []int
	}{
		{"all", 0, 0, []int{1, 2, 3}},
		{"limited", 1, 1, []int{2}},
		{"negative offset", -1, 2, []int{1, 2}},
		{"negative limit", 0, -5, []int{1, 2, 3}},
		{"offset past end", 10, 1, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, page(items, tt.offset, tt.limit))
		})
	}
}

func TestListAccountsNegativeOffset(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.PutAccount(ctx, account.New(id.NewAccountID())))

	all, err := s.ListAccounts(ctx, account.ListOpts{Offset: -1})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRecords(t *testing.T) {
	ctx := context.Background()
	s := New()

	info := record.New(id.NewAccountID(), "code")
	info.StorageBytes = 10
	require.NoError(t, s.PutRecord(ctx, info))

	got, err := s.GetRecord(ctx, info.AccountID)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), got.StorageBytes)
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, s.DeleteRecord(ctx, info.AccountID))
	_, err = s.GetRecord(ctx, info.AccountID)
	assert.True(t, store.IsNotFound(err))
	assert.ErrorIs(t, s.DeleteRecord(ctx, info.AccountID), store.ErrRecordNotFound)
}

func TestSettlements(t *testing.T) {
	ctx := context.Background()
	s := New()
	origin := id.NewAccountID()

	older := &settlement.Settlement{ID: id.NewSettlementID(), Origin: origin, Total: types.Charge(1)}
	newer := &settlement.Settlement{ID: id.NewSettlementID(), Origin: origin, Total: types.Refund(2)}
	other := &settlement.Settlement{ID: id.NewSettlementID(), Origin: id.NewAccountID()}
	for _, st := range []*settlement.Settlement{older, newer, other} {
		require.NoError(t, s.CreateSettlement(ctx, st))
	}
	assert.ErrorIs(t, s.CreateSettlement(ctx, older), store.ErrAlreadyExists)

	list, err := s.ListSettlements(ctx, origin, settlement.ListOpts{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID.String(), list[0].ID.String())

	got, err := s.GetSettlement(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Charge(1), got.Total)

	_, err = s.GetSettlement(ctx, id.NewSettlementID())
	assert.ErrorIs(t, err, store.ErrSettlementNotFound)
}
