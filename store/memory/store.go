// Package memory provides an in-memory store.Store for tests and simulation.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xraph/deposit/account"
	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/record"
	"github.com/xraph/deposit/settlement"
	"github.com/xraph/deposit/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store keeps every entity in maps guarded by one lock. Values are copied
// on the way in and out, so callers never share state with the store.
type Store struct {
	mu sync.RWMutex

	// Account storage
	accounts map[string]*account.Account

	// Record storage, keyed by account
	records map[string]*record.Info

	// Settlement storage, in insertion order
	settlements []*settlement.Settlement
}

func New() *Store {
	return &Store{
		accounts: make(map[string]*account.Account),
		records:  make(map[string]*record.Info),
	}
}

// Account Store implementation
func (s *Store) GetAccount(_ context.Context, accountID id.AccountID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[accountID.String()]; ok {
		c := *a
		return &c, nil
	}
	return nil, store.ErrAccountNotFound
}

func (s *Store) PutAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *a
	c.Stamp()
	s.accounts[a.ID.String()] = &c
	return nil
}

// DeleteAccount removes an account. It is not part of store.Store: only
// simulations that roll balances back need it.
func (s *Store) DeleteAccount(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[accountID.String()]; !ok {
		return store.ErrAccountNotFound
	}
	delete(s.accounts, accountID.String())
	return nil
}

func (s *Store) ListAccounts(_ context.Context, opts account.ListOpts) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*account.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		c := *a
		result = append(result, &c)
	}
	slices.SortFunc(result, func(a, b *account.Account) int { return a.ID.Compare(b.ID) })

	return page(result, opts.Offset, opts.Limit), nil
}

// Record Store implementation
func (s *Store) GetRecord(_ context.Context, accountID id.AccountID) (*record.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if info, ok := s.records[accountID.String()]; ok {
		return info.Clone(), nil
	}
	return nil, store.ErrRecordNotFound
}

func (s *Store) PutRecord(_ context.Context, info *record.Info) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := info.Clone()
	c.Stamp()
	s.records[info.AccountID.String()] = c
	return nil
}

func (s *Store) DeleteRecord(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[accountID.String()]; !ok {
		return store.ErrRecordNotFound
	}
	delete(s.records, accountID.String())
	return nil
}

// Settlement Store implementation
func (s *Store) CreateSettlement(_ context.Context, st *settlement.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.settlements {
		if existing.ID.String() == st.ID.String() {
			return store.ErrAlreadyExists
		}
	}
	c := cloneSettlement(st)
	c.Stamp()
	s.settlements = append(s.settlements, c)
	return nil
}

func (s *Store) GetSettlement(_ context.Context, settlementID id.SettlementID) (*settlement.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.settlements {
		if st.ID.String() == settlementID.String() {
			return cloneSettlement(st), nil
		}
	}
	return nil, store.ErrSettlementNotFound
}

func (s *Store) ListSettlements(_ context.Context, origin id.AccountID, opts settlement.ListOpts) ([]*settlement.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*settlement.Settlement, 0)
	for i := len(s.settlements) - 1; i >= 0; i-- {
		if st := s.settlements[i]; st.Origin.String() == origin.String() {
			result = append(result, cloneSettlement(st))
		}
	}
	return page(result, opts.Offset, opts.Limit), nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// Helper functions
func cloneSettlement(st *settlement.Settlement) *settlement.Settlement {
	c := *st
	c.Entries = slices.Clone(st.Entries)
	return &c
}

func page[T any](items []T, offset, limit int) []T {
	start := max(offset, 0)
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
