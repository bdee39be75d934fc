package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/deposit/account"
	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/record"
	"github.com/xraph/deposit/settlement"
	"github.com/xraph/deposit/types"
)

// Balances are stored as decimal text: uint64 does not fit BIGINT.

// ==================== Account models ====================

type accountModel struct {
	grove.BaseModel `grove:"table:deposit_accounts"`

	ID        string    `grove:"id,pk"`
	Free      string    `grove:"free"`
	Reserved  string    `grove:"reserved"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	return &accountModel{
		ID:        a.ID.String(),
		Free:      a.Free.String(),
		Reserved:  a.Reserved.String(),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	accountID, err := id.ParseAccountID(m.ID)
	if err != nil {
		return nil, err
	}
	free, err := types.ParseBalance(m.Free)
	if err != nil {
		return nil, err
	}
	reserved, err := types.ParseBalance(m.Reserved)
	if err != nil {
		return nil, err
	}
	return &account.Account{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       accountID,
		Free:     free,
		Reserved: reserved,
	}, nil
}

// ==================== Record models ====================

type recordModel struct {
	grove.BaseModel `grove:"table:deposit_records"`

	AccountID    string    `grove:"account_id,pk"`
	CodeHash     string    `grove:"code_hash"`
	StorageBytes int64     `grove:"storage_bytes"`
	StorageItems int64     `grove:"storage_items"`
	ByteDeposit  string    `grove:"byte_deposit"`
	ItemDeposit  string    `grove:"item_deposit"`
	BaseDeposit  string    `grove:"base_deposit"`
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toRecordModel(info *record.Info) *recordModel {
	return &recordModel{
		AccountID:    info.AccountID.String(),
		CodeHash:     info.CodeHash,
		StorageBytes: int64(info.StorageBytes),
		StorageItems: int64(info.StorageItems),
		ByteDeposit:  info.ByteDeposit.String(),
		ItemDeposit:  info.ItemDeposit.String(),
		BaseDeposit:  info.BaseDeposit.String(),
		CreatedAt:    info.CreatedAt,
		UpdatedAt:    info.UpdatedAt,
	}
}

func fromRecordModel(m *recordModel) (*record.Info, error) {
	accountID, err := id.ParseAccountID(m.AccountID)
	if err != nil {
		return nil, err
	}
	var balances [3]types.Balance
	for i, raw := range []string{m.ByteDeposit, m.ItemDeposit, m.BaseDeposit} {
		if balances[i], err = types.ParseBalance(raw); err != nil {
			return nil, err
		}
	}
	return &record.Info{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		AccountID:    accountID,
		CodeHash:     m.CodeHash,
		StorageBytes: uint32(m.StorageBytes),
		StorageItems: uint32(m.StorageItems),
		ByteDeposit:  balances[0],
		ItemDeposit:  balances[1],
		BaseDeposit:  balances[2],
	}, nil
}

// ==================== Settlement models ====================

type settlementModel struct {
	grove.BaseModel `grove:"table:deposit_settlements"`

	ID          string          `grove:"id,pk"`
	Origin      string          `grove:"origin"`
	Limit       string          `grove:"deposit_limit"`
	TotalKind   string          `grove:"total_kind"`
	TotalAmount string          `grove:"total_amount"`
	Entries     json.RawMessage `grove:"entries,type:jsonb"`
	CreatedAt   time.Time       `grove:"created_at"`
	UpdatedAt   time.Time       `grove:"updated_at"`
}

func toSettlementModel(st *settlement.Settlement) (*settlementModel, error) {
	entries, err := json.Marshal(st.Entries)
	if err != nil {
		return nil, fmt.Errorf("deposit/postgres: encode entries: %w", err)
	}
	return &settlementModel{
		ID:          st.ID.String(),
		Origin:      st.Origin.String(),
		Limit:       st.Limit.String(),
		TotalKind:   st.Total.Kind.String(),
		TotalAmount: st.Total.Amount.String(),
		Entries:     entries,
		CreatedAt:   st.CreatedAt,
		UpdatedAt:   st.UpdatedAt,
	}, nil
}

func fromSettlementModel(m *settlementModel) (*settlement.Settlement, error) {
	settlementID, err := id.ParseSettlementID(m.ID)
	if err != nil {
		return nil, err
	}
	origin, err := id.ParseAccountID(m.Origin)
	if err != nil {
		return nil, err
	}
	limit, err := types.ParseBalance(m.Limit)
	if err != nil {
		return nil, err
	}
	var total types.Deposit
	if err := total.Kind.UnmarshalText([]byte(m.TotalKind)); err != nil {
		return nil, err
	}
	if total.Amount, err = types.ParseBalance(m.TotalAmount); err != nil {
		return nil, err
	}
	var entries []settlement.Entry
	if len(m.Entries) > 0 {
		if err := json.Unmarshal(m.Entries, &entries); err != nil {
			return nil, fmt.Errorf("deposit/postgres: decode entries: %w", err)
		}
	}
	return &settlement.Settlement{
		Entity:  types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:      settlementID,
		Origin:  origin,
		Limit:   limit,
		Total:   total,
		Entries: entries,
	}, nil
}
