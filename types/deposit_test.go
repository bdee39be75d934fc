package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositSaturatingAdd(t *testing.T) {
	tests := []struct {
		name string
		a, b Deposit
		want Deposit
	}{
		{"charges sum", Charge(3), Charge(4), Charge(7)},
		{"refunds sum", Refund(3), Refund(4), Refund(7)},
		{"charge absorbs smaller refund", Charge(10), Refund(4), Charge(6)},
		{"refund absorbs smaller charge", Refund(10), Charge(4), Refund(6)},
		{"larger refund flips charge", Charge(4), Refund(10), Refund(6)},
		{"larger charge flips refund", Refund(4), Charge(10), Charge(6)},
		{"cancel from charge", Charge(5), Refund(5), Charge(0)},
		{"cancel from refund", Refund(5), Charge(5), Charge(0)},
		{"saturates", Charge(MaxBalance), Charge(1), Charge(MaxBalance)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.SaturatingAdd(tt.b))
		})
	}
}

func TestDepositAvailable(t *testing.T) {
	assert.Equal(t, Balance(70), Charge(30).Available(100))
	assert.Equal(t, Balance(0), Charge(130).Available(100))
	assert.Equal(t, Balance(130), Refund(30).Available(100))
	assert.Equal(t, MaxBalance, Refund(1).Available(MaxBalance))
}

func TestDepositOrdering(t *testing.T) {
	assert.Equal(t, -1, Refund(1000).Compare(Charge(0)))
	assert.Equal(t, 1, Charge(0).Compare(Refund(1000)))
	assert.Equal(t, -1, Charge(1).Compare(Charge(2)))
	assert.Equal(t, 0, Refund(2).Compare(Refund(2)))
	assert.Equal(t, Charge(1), Refund(50).Max(Charge(1)))
}

func TestDepositHelpers(t *testing.T) {
	assert.Equal(t, Balance(9), Charge(9).ChargeOrZero())
	assert.Equal(t, Balance(0), Refund(9).ChargeOrZero())
	assert.True(t, Refund(0).IsZero())
	assert.True(t, Deposit{}.IsCharge())
	assert.Equal(t, "refund(3)", Refund(3).String())
}

func TestDepositJSON(t *testing.T) {
	data, err := json.Marshal(Refund(MaxBalance))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"refund","amount":"18446744073709551615"}`, string(data))

	var d Deposit
	require.NoError(t, json.Unmarshal(data, &d))
	assert.Equal(t, Refund(MaxBalance), d)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"bogus","amount":"1"}`), &d))
}
