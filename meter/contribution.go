package meter

import (
	"github.com/xraph/deposit/record"
	"github.com/xraph/deposit/types"
)

type contributionState uint8

const (
	// alive frames still accumulate diffs.
	alive contributionState = iota
	// checked frames had their limit enforced; the deposit is frozen.
	checked
	// terminated frames refund the whole record deposit.
	terminated
)

// contribution is what a single frame adds for its own account, excluding
// its children. Once it leaves alive it never changes again.
type contribution struct {
	state   contributionState
	diff    Diff
	deposit types.Deposit
}

func (c *contribution) settle(p Params, info *record.Info) types.Deposit {
	if c.state == alive {
		return c.diff.Settle(p, info)
	}
	return c.deposit
}
