package phone

import "fmt"

// Kind classifies the outcome of ValidateNational.
type Kind int

const (
	// Valid means the value is a well-formed national mobile number.
	Valid Kind = iota
	// Empty means the value was empty or blank.
	Empty
	// WrongLength means the value did not have NationalLength characters.
	WrongLength
	// WrongPrefix means the value did not start with NationalPrefix.
	WrongPrefix
	// NonDigit means the value contained a character other than 0-9.
	NonDigit
)

func (k Kind) String() string {
	switch k {
	case Valid:
		return "VALID"
	case Empty:
		return "EMPTY"
	case WrongLength:
		return "WRONG_LENGTH"
	case WrongPrefix:
		return "WRONG_PREFIX"
	case NonDigit:
		return "NON_DIGIT"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result is the structured outcome of ValidateNational.
type Result struct {
	Kind Kind
	// Actual is the observed length. Only set for WrongLength.
	Actual int
}

// OK reports whether the value was valid.
func (r Result) OK() bool { return r.Kind == Valid }

// Err returns nil for a valid result and a *ValidationError otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Kind: r.Kind, Actual: r.Actual}
}

// ValidationError carries a failed Result through error-returning APIs.
// It deliberately holds no user-facing text.
type ValidationError struct {
	Kind   Kind
	Actual int
}

func (e *ValidationError) Error() string {
	if e.Kind == WrongLength {
		return fmt.Sprintf("phone: %s (length %d)", e.Kind, e.Actual)
	}
	return "phone: " + e.Kind.String()
}
