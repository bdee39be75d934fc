package scenario

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/deposit"
	"github.com/xraph/deposit/types"
)

func TestRunNested(t *testing.T) {
	sc, err := LoadFile("testdata/nested.yaml")
	require.NoError(t, err)

	res, err := Run(context.Background(), sc)
	require.NoError(t, err)

	carol := res.Records["carol"]
	require.NotNil(t, carol)
	base := carol.BaseDeposit
	assert.Equal(t, uint32(4), carol.StorageBytes)
	assert.Equal(t, base+6, carol.TotalDeposit())

	st := res.Settlement
	assert.Equal(t, deposit.Charge(base+6).SaturatingAdd(deposit.Refund(50)), st.Total)
	require.Len(t, st.Entries, 2)
	assert.Equal(t, "bob", res.Name(st.Entries[0].Account))
	assert.Equal(t, deposit.Refund(50), st.Entries[0].Amount)
	assert.Equal(t, "carol", res.Name(st.Entries[1].Account))
	assert.Equal(t, deposit.Charge(6), st.Entries[1].Amount)

	assert.Equal(t, []string{"dave"}, res.Reverted)
	assert.Equal(t, types.Balance(1000)-base-6+50, res.Accounts["alice"].Free)
	assert.Equal(t, types.Balance(60), res.Accounts["bob"].Reserved)
	assert.Equal(t, base+6, res.Accounts["carol"].Reserved)
	assert.NotContains(t, res.Accounts, "dave")
	assert.NotContains(t, res.Records, "dave")

	bob := res.Records["bob"]
	require.NotNil(t, bob)
	assert.Equal(t, uint32(50), bob.StorageBytes)
	assert.Equal(t, types.Balance(50), bob.ByteDeposit)

	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, res.SortedNames())
}

func TestRunTerminate(t *testing.T) {
	sc, err := LoadFile("testdata/terminate.yaml")
	require.NoError(t, err)

	res, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, deposit.Refund(120), res.Settlement.Total)
	require.Len(t, res.Settlement.Entries, 1)
	assert.True(t, res.Settlement.Entries[0].Terminated)
	assert.NotContains(t, res.Records, "bob")
	assert.Equal(t, types.Balance(220), res.Accounts["alice"].Free)
	assert.True(t, res.Accounts["bob"].Reserved.IsZero())
}

func TestRunLimitExceeded(t *testing.T) {
	sc, err := Load(strings.NewReader(`
origin: alice
limit: 5
accounts:
  alice: {free: 100}
call:
  account: bob
  diff: {bytes_added: 10}
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), sc)
	require.ErrorIs(t, err, deposit.ErrLimitExceeded)
}

func TestRunOutermostRevert(t *testing.T) {
	sc, err := Load(strings.NewReader(`
origin: alice
accounts:
  alice: {free: 100}
call:
  account: bob
  revert: true
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), sc)
	require.ErrorIs(t, err, ErrReverted)
}

func TestRunRevertedInstantiationRefundsOrigin(t *testing.T) {
	sc, err := Load(strings.NewReader(`
origin: alice
accounts:
  alice: {free: 1000}
call:
  account: bob
  calls:
    - account: carol
      instantiate: true
      code_hash: c0de
      revert: true
`))
	require.NoError(t, err)

	res, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, []string{"carol"}, res.Reverted)
	assert.Equal(t, types.Balance(1000), res.Accounts["alice"].Free)
	assert.NotContains(t, res.Accounts, "carol")
	assert.NotContains(t, res.Records, "carol")
	assert.True(t, res.Settlement.Total.IsZero())
}

func TestRunOutermostFailureRestoresBalances(t *testing.T) {
	sc, err := Load(strings.NewReader(`
origin: alice
accounts:
  alice: {free: 1000}
  bob: {reserved: 40}
call:
  account: carol
  instantiate: true
  code_hash: c0de
  revert: true
`))
	require.NoError(t, err)

	res, err := Run(context.Background(), sc)
	require.ErrorIs(t, err, ErrReverted)
	require.NotNil(t, res)

	assert.Nil(t, res.Settlement)
	assert.Equal(t, types.Balance(1000), res.Accounts["alice"].Free)
	assert.Equal(t, types.Balance(40), res.Accounts["bob"].Reserved)
	assert.NotContains(t, res.Accounts, "carol")
	assert.NotContains(t, res.Records, "carol")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"missing origin", "call: {account: bob}", "origin"},
		{"missing account", "origin: alice\ncall: {calls: [{}]}", "call.account"},
		{"terminate and revert", "origin: a\ncall: {account: b, terminate: true, revert: true}", "cannot both"},
		{"bad params", "origin: a\nparams: {min_balance: 0}\ncall: {account: b}", "params"},
		{"unknown field", "origin: a\nbogus: 1\ncall: {account: b}", "bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, errorText(err), tt.want)
		})
	}
}

// errorText flattens a MultiError so every message can be matched.
func errorText(err error) string {
	var multi deposit.MultiError
	if !errors.As(err, &multi) {
		return err.Error()
	}
	msgs := make([]string, 0, len(multi.Errors))
	for _, e := range multi.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}
