package ir

// Intent describes how a formal binds its actual.
type Intent uint8

const (
	// IntentBlank defers to the type's default binding rule.
	IntentBlank Intent = iota
	// IntentConst is blank binding with writes rejected.
	IntentConst
	// IntentIn copies the actual into the formal.
	IntentIn
	// IntentOut writes the formal back into the actual on return.
	IntentOut
	// IntentInout copies in and writes back.
	IntentInout
	// IntentRef aliases the actual.
	IntentRef
	// IntentConstRef aliases the actual without permitting writes.
	IntentConstRef
	// IntentParam binds a compile-time value.
	IntentParam
	// IntentType binds a type, not a value.
	IntentType
)

func (i Intent) String() string {
	switch i {
	case IntentBlank:
		return "blank"
	case IntentConst:
		return "const"
	case IntentIn:
		return "in"
	case IntentOut:
		return "out"
	case IntentInout:
		return "inout"
	case IntentRef:
		return "ref"
	case IntentConstRef:
		return "const ref"
	case IntentParam:
		return "param"
	case IntentType:
		return "type"
	}
	return "unknown"
}

// IsRef reports whether the intent aliases the actual.
func (i Intent) IsRef() bool {
	return i == IntentRef || i == IntentConstRef
}

// IsWriteback reports whether the intent writes the formal back to the
// caller.
func (i Intent) IsWriteback() bool {
	return i == IntentOut || i == IntentInout
}

// RetKind describes what a function returns.
type RetKind uint8

const (
	// RetValue returns a plain value.
	RetValue RetKind = iota
	// RetRef returns a reference.
	RetRef
	// RetParam returns a compile-time value folded after resolution.
	RetParam
	// RetType returns a type.
	RetType
)

func (k RetKind) String() string {
	switch k {
	case RetValue:
		return "value"
	case RetRef:
		return "ref"
	case RetParam:
		return "param"
	case RetType:
		return "type"
	}
	return "unknown"
}
