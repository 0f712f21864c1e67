package isotp

import "github.com/cantype/cantype"

// Address holds the identifier pair of a point to point diagnostic
// session plus the functional broadcast identifier.
type Address struct {
	// TxID is the identifier this side transmits on.
	TxID cantype.ID
	// RxID is the identifier the peer answers on.
	RxID cantype.ID
	// FuncID is the functional addressing identifier, used when a
	// request targets every node at once.
	FuncID cantype.ID
}

// DefaultAddress is the conventional 11-bit OBD tester pair.
func DefaultAddress() Address {
	return Address{
		TxID:   cantype.StandardID(0x7E0),
		RxID:   cantype.StandardID(0x7E8),
		FuncID: cantype.StandardID(0x7DF),
	}
}
