// Package record defines the persisted per-account storage record: how much
// storage an account occupies and the deposit collected for it.
package record

import (
	"encoding/binary"

	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/types"
)

// Info is the storage record of one account.
//
// ByteDeposit and ItemDeposit always reflect the deposit charged for the
// current StorageBytes and StorageItems and change together with them.
type Info struct {
	types.Entity
	AccountID    id.AccountID  `json:"account_id"`
	CodeHash     string        `json:"code_hash,omitempty"`
	StorageBytes uint32        `json:"storage_bytes"`
	StorageItems uint32        `json:"storage_items"`
	ByteDeposit  types.Balance `json:"byte_deposit"`
	ItemDeposit  types.Balance `json:"item_deposit"`
	BaseDeposit  types.Balance `json:"base_deposit"`
}

// New returns an empty record for the account.
func New(accountID id.AccountID, codeHash string) *Info {
	return &Info{Entity: types.NewEntity(), AccountID: accountID, CodeHash: codeHash}
}

// TotalDeposit is everything the account has on deposit for itself.
func (i *Info) TotalDeposit() types.Balance {
	return i.BaseDeposit.SaturatingAdd(i.ExtraDeposit())
}

// ExtraDeposit is the deposit for storage on top of the base deposit.
func (i *Info) ExtraDeposit() types.Balance {
	return i.ByteDeposit.SaturatingAdd(i.ItemDeposit)
}

// Clone returns a copy of the record.
func (i *Info) Clone() *Info {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

const fixedSize = 4 + 4 + 8 + 8 + 8

// MarshalBinary encodes the record in a compact length-prefixed layout.
// Only the identifying strings vary in size, so the encoded size of a fresh
// record equals that of the same record once deposits are filled in.
func (i *Info) MarshalBinary() ([]byte, error) {
	accountID := i.AccountID.String()
	buf := make([]byte, 0, fixedSize+len(accountID)+len(i.CodeHash)+2*binary.MaxVarintLen32)
	buf = binary.AppendUvarint(buf, uint64(len(accountID)))
	buf = append(buf, accountID...)
	buf = binary.AppendUvarint(buf, uint64(len(i.CodeHash)))
	buf = append(buf, i.CodeHash...)
	buf = binary.LittleEndian.AppendUint32(buf, i.StorageBytes)
	buf = binary.LittleEndian.AppendUint32(buf, i.StorageItems)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(i.ByteDeposit))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(i.ItemDeposit))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(i.BaseDeposit))
	return buf, nil
}

// EncodedSize returns the number of bytes the record occupies in storage.
func (i *Info) EncodedSize() uint32 {
	data, _ := i.MarshalBinary()
	return uint32(len(data))
}
