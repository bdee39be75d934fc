package deposit

import "github.com/xraph/deposit/id"

// ID is the primary identifier type for all deposit entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

// AccountID identifies a contract or user account.
type AccountID = id.AccountID

// SettlementID identifies a persisted settlement.
type SettlementID = id.SettlementID
