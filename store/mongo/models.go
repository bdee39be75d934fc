package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/deposit/account"
	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/record"
	"github.com/xraph/deposit/settlement"
	"github.com/xraph/deposit/types"
)

// Balances are stored as decimal strings: BSON has no unsigned 64-bit integer.

// ==================== Account models ====================

type accountModel struct {
	grove.BaseModel `grove:"table:deposit_accounts"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	Free      string    `grove:"free"       bson:"free"`
	Reserved  string    `grove:"reserved"   bson:"reserved"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
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

	AccountID    string    `grove:"account_id,pk" bson:"_id"`
	CodeHash     string    `grove:"code_hash"     bson:"code_hash"`
	StorageBytes int64     `grove:"storage_bytes" bson:"storage_bytes"`
	StorageItems int64     `grove:"storage_items" bson:"storage_items"`
	ByteDeposit  string    `grove:"byte_deposit"  bson:"byte_deposit"`
	ItemDeposit  string    `grove:"item_deposit"  bson:"item_deposit"`
	BaseDeposit  string    `grove:"base_deposit"  bson:"base_deposit"`
	CreatedAt    time.Time `grove:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"    bson:"updated_at"`
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

	ID          string       `grove:"id,pk"         bson:"_id"`
	Origin      string       `grove:"origin"        bson:"origin"`
	Limit       string       `grove:"deposit_limit" bson:"deposit_limit"`
	TotalKind   string       `grove:"total_kind"    bson:"total_kind"`
	TotalAmount string       `grove:"total_amount"  bson:"total_amount"`
	Entries     []entryModel `grove:"entries"       bson:"entries"`
	CreatedAt   time.Time    `grove:"created_at"    bson:"created_at"`
	UpdatedAt   time.Time    `grove:"updated_at"    bson:"updated_at"`
}

type entryModel struct {
	Account    string `bson:"account"`
	Kind       string `bson:"kind"`
	Amount     string `bson:"amount"`
	Terminated bool   `bson:"terminated"`
}

func toSettlementModel(st *settlement.Settlement) *settlementModel {
	entries := make([]entryModel, len(st.Entries))
	for i, e := range st.Entries {
		entries[i] = entryModel{
			Account:    e.Account.String(),
			Kind:       e.Amount.Kind.String(),
			Amount:     e.Amount.Amount.String(),
			Terminated: e.Terminated,
		}
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
	}
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
	total, err := parseDeposit(m.TotalKind, m.TotalAmount)
	if err != nil {
		return nil, err
	}

	entries := make([]settlement.Entry, len(m.Entries))
	for i, em := range m.Entries {
		accountID, err := id.ParseAccountID(em.Account)
		if err != nil {
			return nil, err
		}
		amount, err := parseDeposit(em.Kind, em.Amount)
		if err != nil {
			return nil, err
		}
		entries[i] = settlement.Entry{Account: accountID, Amount: amount, Terminated: em.Terminated}
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

func parseDeposit(kind, amount string) (types.Deposit, error) {
	var d types.Deposit
	if err := d.Kind.UnmarshalText([]byte(kind)); err != nil {
		return d, err
	}
	var err error
	d.Amount, err = types.ParseBalance(amount)
	return d, err
}
