package fundme

import "github.com/xraph/fundme/types"

// Re-export common types so callers rarely need the types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Address is re-exported from types package.
type Address = types.Address

// Re-export constructors
var (
	Wei              = types.Wei
	Ether            = types.Ether
	USD              = types.USD
	ParseEther       = types.ParseEther
	ParseAddress     = types.ParseAddress
	MustParseAddress = types.MustParseAddress
)
