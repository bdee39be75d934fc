package types

import (
	"encoding/json"
	"fmt"
)

// DepositKind tags a Deposit as money owed or money returned.
type DepositKind uint8

const (
	// KindCharge means the amount is taken from the payer.
	KindCharge DepositKind = iota
	// KindRefund means the amount is returned to the payer.
	KindRefund
)

// String returns the lower-case name of the kind.
func (k DepositKind) String() string {
	switch k {
	case KindCharge:
		return "charge"
	case KindRefund:
		return "refund"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k DepositKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *DepositKind) UnmarshalText(data []byte) error {
	switch string(data) {
	case "charge", "":
		*k = KindCharge
	case "refund":
		*k = KindRefund
	default:
		return fmt.Errorf("types: unknown deposit kind %q", string(data))
	}
	return nil
}

// Deposit is a signed storage deposit expressed as a tagged magnitude.
//
// The zero value is Charge(0). A zero amount is valid in either tag and is
// treated as a no-op when settling.
type Deposit struct {
	Kind   DepositKind `json:"kind"`
	Amount Balance     `json:"amount"`
}

// Charge creates a charging deposit.
func Charge(amount Balance) Deposit { return Deposit{Kind: KindCharge, Amount: amount} }

// Refund creates a refunding deposit.
func Refund(amount Balance) Deposit { return Deposit{Kind: KindRefund, Amount: amount} }

// IsCharge reports whether d is tagged as a charge.
func (d Deposit) IsCharge() bool { return d.Kind == KindCharge }

// IsRefund reports whether d is tagged as a refund.
func (d Deposit) IsRefund() bool { return d.Kind == KindRefund }

// IsZero reports whether the magnitude is zero, regardless of tag.
func (d Deposit) IsZero() bool { return d.Amount == 0 }

// SaturatingAdd nets two deposits. Same tags sum their magnitudes; opposite
// tags subtract, and the result carries the tag of the larger magnitude.
// Equal opposite magnitudes cancel to Charge(0).
func (d Deposit) SaturatingAdd(other Deposit) Deposit {
	if d.Kind == other.Kind {
		return Deposit{Kind: d.Kind, Amount: d.Amount.SaturatingAdd(other.Amount)}
	}
	switch {
	case d.Amount == other.Amount:
		return Charge(0)
	case d.Amount > other.Amount:
		return Deposit{Kind: d.Kind, Amount: d.Amount - other.Amount}
	default:
		return Deposit{Kind: other.Kind, Amount: other.Amount - d.Amount}
	}
}

// Available returns how much can still be charged under limit once d is
// applied: limit minus a charge, or limit plus a refund.
func (d Deposit) Available(limit Balance) Balance {
	if d.IsRefund() {
		return limit.SaturatingAdd(d.Amount)
	}
	return limit.SaturatingSub(d.Amount)
}

// ChargeOrZero returns the charged amount, or zero for a refund.
func (d Deposit) ChargeOrZero() Balance {
	if d.IsRefund() {
		return 0
	}
	return d.Amount
}

// Compare orders deposits: every refund sorts below every charge; within a tag
// the larger amount sorts higher. It returns -1, 0 or +1.
func (d Deposit) Compare(other Deposit) int {
	switch {
	case d.Kind != other.Kind:
		if d.IsRefund() {
			return -1
		}
		return 1
	case d.Amount == other.Amount:
		return 0
	case d.Amount < other.Amount:
		return -1
	default:
		return 1
	}
}

// Max returns the greater of two deposits under Compare.
func (d Deposit) Max(other Deposit) Deposit {
	if d.Compare(other) >= 0 {
		return d
	}
	return other
}

// String renders the deposit as "charge(12)" or "refund(3)".
func (d Deposit) String() string {
	return fmt.Sprintf("%s(%d)", d.Kind, uint64(d.Amount))
}

type depositJSON struct {
	Kind   DepositKind `json:"kind"`
	Amount string      `json:"amount"`
}

// MarshalJSON encodes the amount as a decimal string so it survives
// consumers that read numbers as float64.
func (d Deposit) MarshalJSON() ([]byte, error) {
	return json.Marshal(depositJSON{Kind: d.Kind, Amount: d.Amount.String()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Deposit) UnmarshalJSON(data []byte) error {
	var raw depositJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	amount, err := ParseBalance(raw.Amount)
	if err != nil {
		return err
	}
	d.Kind = raw.Kind
	d.Amount = amount
	return nil
}
