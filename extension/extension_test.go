package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/deposit"
	"github.com/xraph/deposit/store/memory"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{DepositPerByte: Price(7)})
	assert.Equal(t, uint64(7), *cfg.DepositPerByte)
	assert.Equal(t, uint64(2), *cfg.DepositPerItem)
	assert.Equal(t, uint64(1), cfg.MinBalance)
}

func TestMergeWithDefaultsKeepsFreePrices(t *testing.T) {
	cfg := mergeWithDefaults(Config{DepositPerByte: Price(0), DepositPerItem: Price(0)})
	assert.Equal(t, uint64(0), *cfg.DepositPerByte)
	assert.Equal(t, uint64(0), *cfg.DepositPerItem)

	e := New(WithConfig(cfg))
	assert.Equal(t, deposit.Params{MinBalance: 1}, e.params())
}

func TestMergeConfigurations(t *testing.T) {
	file := Config{DepositPerByte: Price(3), Driver: "postgres"}
	prog := Config{DepositPerByte: Price(9), MinBalance: 50, Driver: "sqlite", StrictSettlement: true}

	cfg := mergeConfigurations(file, prog)
	assert.Equal(t, uint64(3), *cfg.DepositPerByte)
	assert.Equal(t, uint64(50), cfg.MinBalance)
	assert.Equal(t, uint64(2), *cfg.DepositPerItem)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.True(t, cfg.StrictSettlement)
}

func TestMergeConfigurationsFreePriceInFile(t *testing.T) {
	file := Config{DepositPerItem: Price(0)}
	prog := Config{DepositPerItem: Price(5)}

	cfg := mergeConfigurations(file, prog)
	assert.Equal(t, uint64(0), *cfg.DepositPerItem)
	assert.Equal(t, uint64(1), *cfg.DepositPerByte)
}

func TestOptionsShapeConfig(t *testing.T) {
	e := New(
		WithParams(deposit.Params{DepositPerByte: 4, DepositPerItem: 5, MinBalance: 6}),
		WithStrictSettlement(),
		WithDisableMigrate(),
	)

	assert.Equal(t, deposit.Params{DepositPerByte: 4, DepositPerItem: 5, MinBalance: 6}, e.params())
	assert.True(t, e.config.StrictSettlement)
	assert.True(t, e.config.DisableMigrate)
	assert.Nil(t, e.Engine())
}

func TestBuildStore(t *testing.T) {
	s, err := New().buildStore()
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	given := memory.New()
	s, err = New(WithStore(given)).buildStore()
	require.NoError(t, err)
	assert.Same(t, given, s)
}
