package domain

// Claim is a typed key/value assertion attached to a user. A user may hold
// several claims of the same type; identity is the full (Type, Value) pair.
type Claim struct {
	Type  string
	Value string
}

func (c Claim) Equal(other Claim) bool {
	return c.Type == other.Type && c.Value == other.Value
}
