// Package scenario loads YAML call trees and runs them through a deposit
// engine the way a contract host would: spawn a meter per frame, charge the
// frame's storage diff, recurse into sub-calls, enforce the limit at the
// outermost frame and absorb every frame that returned.
package scenario

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xraph/deposit"
	"github.com/xraph/deposit/meter"
	"github.com/xraph/deposit/types"
)

// Scenario is one top-level call together with the state it starts from.
// Accounts are referred to by name.
type Scenario struct {
	Params      *meter.Params          `yaml:"params"`
	Origin      string                 `yaml:"origin"`
	Limit       *types.Balance         `yaml:"limit"`
	MinLeftover types.Balance          `yaml:"min_leftover"`
	Accounts    map[string]AccountSpec `yaml:"accounts"`
	Records     map[string]RecordSpec  `yaml:"records"`
	Call        Call                   `yaml:"call"`
}

// AccountSpec is the starting balance of an account.
type AccountSpec struct {
	Free     types.Balance `yaml:"free"`
	Reserved types.Balance `yaml:"reserved"`
}

// RecordSpec is the starting storage record of a contract.
type RecordSpec struct {
	CodeHash     string        `yaml:"code_hash"`
	StorageBytes uint32        `yaml:"storage_bytes"`
	StorageItems uint32        `yaml:"storage_items"`
	ByteDeposit  types.Balance `yaml:"byte_deposit"`
	ItemDeposit  types.Balance `yaml:"item_deposit"`
	BaseDeposit  types.Balance `yaml:"base_deposit"`
}

// Call is one frame of the call tree.
type Call struct {
	Account string `yaml:"account"`

	// Instantiate creates the account's record and charges its base deposit
	// before anything else happens in the frame.
	Instantiate bool   `yaml:"instantiate"`
	CodeHash    string `yaml:"code_hash"`

	Diff      meter.Diff `yaml:"diff"`
	Terminate bool       `yaml:"terminate"`

	// Revert makes the frame fail after its sub-calls ran. A reverted frame
	// is dropped by its caller; reverting the outermost frame fails the
	// scenario.
	Revert bool `yaml:"revert"`

	Calls []Call `yaml:"calls"`
}

// Load decodes a scenario and validates it.
func Load(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("scenario: decode: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadFile loads a scenario from a YAML file.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("scenario: open: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks the scenario for missing names and contradictory flags.
func (sc *Scenario) Validate() error {
	var errs deposit.MultiError

	if sc.Origin == "" {
		errs.Add(deposit.ValidationError{Field: "origin", Message: "is required"})
	}
	if sc.Params != nil {
		if err := sc.Params.Validate(); err != nil {
			errs.Add(deposit.ValidationError{Field: "params", Message: err.Error()})
		}
	}
	sc.Call.validate("call", &errs)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func (c *Call) validate(path string, errs *deposit.MultiError) {
	if c.Account == "" {
		errs.Add(deposit.ValidationError{Field: path + ".account", Message: "is required"})
	}
	if c.Terminate && c.Revert {
		errs.Add(deposit.ValidationError{Field: path, Message: "cannot both terminate and revert"})
	}
	for i := range c.Calls {
		c.Calls[i].validate(fmt.Sprintf("%s.calls[%d]", path, i), errs)
	}
}
