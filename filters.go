package cantype

// Filter decides whether a received frame is of interest.
type Filter func(Frame) bool

// ByID matches frames with the exact raw identifier.
func ByID(id uint32) Filter {
	return func(f Frame) bool { return f.ID().Raw() == id }
}

// ByIDs matches any of the provided raw identifiers.
func ByIDs(ids ...uint32) Filter {
	m := make(map[uint32]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return func(f Frame) bool {
		_, ok := m[f.ID().Raw()]
		return ok
	}
}

// ByMask matches when (frame id & mask) == (id & mask).
func ByMask(id, mask uint32) Filter {
	want := id & mask
	return func(f Frame) bool { return f.ID().Raw()&mask == want }
}

// StandardOnly matches 11-bit identifiers.
func StandardOnly() Filter {
	return func(f Frame) bool { return !f.IsExtended() }
}

// ExtendedOnly matches 29-bit identifiers.
func ExtendedOnly() Filter {
	return func(f Frame) bool { return f.IsExtended() }
}

// DataOnly matches frames that are not remote transmission requests.
func DataOnly() Filter {
	return func(f Frame) bool { return !f.IsRemote() }
}

// And matches when both filters match. A nil filter matches everything.
func And(a, b Filter) Filter {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return func(f Frame) bool { return a(f) && b(f) }
	}
}

// Or matches when either filter matches.
func Or(a, b Filter) Filter {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return func(f Frame) bool { return a(f) || b(f) }
	}
}

// Not inverts a filter.
func Not(a Filter) Filter {
	if a == nil {
		return func(Frame) bool { return true }
	}
	return func(f Frame) bool { return !a(f) }
}
