package counter

// Action is the decoded value of the "action" field of a count submission.
type Action uint8

const (
	// Unknown covers absent, empty, non-string and unrecognised values.
	// It never mutates the store.
	Unknown Action = iota
	Increment
	Clear
)

// ParseAction decodes the raw JSON value of the action field.
func ParseAction(v any) Action {
	s, ok := v.(string)
	if !ok {
		return Unknown
	}
	switch s {
	case "inc":
		return Increment
	case "clear":
		return Clear
	default:
		return Unknown
	}
}

func (a Action) String() string {
	switch a {
	case Increment:
		return "inc"
	case Clear:
		return "clear"
	default:
		return "unknown"
	}
}

// Mutates reports whether the action changes the record set.
func (a Action) Mutates() bool {
	return a == Increment || a == Clear
}
