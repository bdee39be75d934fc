// Package deposit provides hierarchical storage-deposit metering for
// contract execution engines.
//
// Deposit is designed as a library, not a service. Import it directly into
// the engine that executes calls. It provides:
//
//   - A root meter per top-level call, bounded by a limit the origin can fund
//   - Nested meters for every sub-call, each bounded by what its parents left
//   - Pro-rata refunds when a contract frees storage it paid for
//   - Full refunds on termination and a minimum balance on instantiation
//   - Settlement in refunds-first order against a reserving backend
//   - Persisted settlement history in Postgres, SQLite, MongoDB or memory
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/deposit"
//	    "github.com/xraph/deposit/store/memory"
//	)
//
//	e := deposit.New(memory.New(),
//	    deposit.WithParams(deposit.Params{DepositPerByte: 1, DepositPerItem: 2, MinBalance: 1}),
//	)
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
// # Core Concepts
//
// A call tree is metered top-down. The root meter is opened for the origin,
// and each frame opens a nested meter from its parent:
//
//	st, err := e.Execute(ctx, origin, nil, 0, func(ctx context.Context, root *deposit.Root) error {
//	    child := root.Nested()
//	    child.Charge(deposit.Diff{BytesAdded: 64, ItemsAdded: 1})
//	    if err := child.EnforceLimit(info); err != nil {
//	        return err // the frame reverts, nothing is settled
//	    }
//	    root.Absorb(child, contract, info)
//	    return nil
//	})
//
// A Diff counts bytes and items added and removed. Settling a Diff against a
// storage record charges for additions and refunds a share of the record's
// deposit for removals. A Deposit is either a Charge or a Refund; every
// Refund orders below every Charge.
//
// # Settlement
//
// Finalizing a root meter pays all refunds first, then all charges, so that
// origin can use refunded funds for later charges in the same call. The
// outcome is stored as a settlement.Settlement.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	acct_01h2xcejqtf2nbrexx3vqjhp41  // Account ID
//	stl_01h455vb4pex5vsknk084sn02q   // Settlement ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package deposit
