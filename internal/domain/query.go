package domain

import "github.com/shopspring/decimal"

// BalanceQuery asks an account for its current balance.
type BalanceQuery struct {
	DeliveryID int64
	AccountID  string
}

// BalanceSnapshot is an immutable copy of an account's balance.
type BalanceSnapshot struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// ResolveOne asks the directory for a single account's address.
type ResolveOne struct {
	DeliveryID int64
	AccountID  string
}

// ResolveMany asks the directory for several addresses at once. Resolution
// is all-or-nothing: one missing id fails the whole call.
type ResolveMany struct {
	DeliveryID int64
	AccountIDs []string
}

// Found answers ResolveOne.
type Found struct {
	DeliveryID int64
	AccountID  string
	Address    string
}

// FoundAll answers ResolveMany when every id resolved.
type FoundAll struct {
	DeliveryID int64
	Addresses  map[string]string
}

// NotFound answers either resolve query, naming the first missing id.
type NotFound struct {
	DeliveryID int64
	AccountID  string
}
