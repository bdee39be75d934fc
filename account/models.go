package account

import (
	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/types"
)

// Account holds the spendable and reserved balances of one party. Storage
// deposits live in Reserved on the account whose storage they pay for.
type Account struct {
	types.Entity
	ID       id.AccountID  `json:"id"`
	Free     types.Balance `json:"free"`
	Reserved types.Balance `json:"reserved"`
}

// New returns an empty account with the given ID.
func New(accountID id.AccountID) *Account {
	return &Account{Entity: types.NewEntity(), ID: accountID}
}

// Total returns free plus reserved.
func (a *Account) Total() types.Balance {
	return a.Free.SaturatingAdd(a.Reserved)
}
