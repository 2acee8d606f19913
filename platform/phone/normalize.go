// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
//
// Numbers exist in one of two forms. The national form is what a user types
// ("0912345678"); the international form is what the API stores and returns
// ("+886912345678"). Everything here is pure and safe for concurrent use.
package phone

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion = "TW"

	// NationalLength is the length of a national-form mobile number.
	NationalLength = 10
	// NationalPrefix is the required start of a national-form mobile number.
	NationalPrefix = "09"
	// CountryCode is the calling code prepended in international form.
	CountryCode = "+886"

	bareCountryCode = "886"
	trunkDigit      = "0"
)

var nationalMobile = regexp.MustCompile(`^09\d{8}$`)

// Sanitize removes whitespace and the characters '(', ')' and '-'.
// No other characters are altered.
func Sanitize(raw string) string {
	return strings.Map(func(r rune) rune {
		if isSpace(r) {
			return -1
		}
		switch r {
		case '(', ')', '-':
			return -1
		}
		return r
	}, raw)
}

// isSpace matches the whitespace set browsers strip with /\s/: Unicode
// White_Space plus the byte order mark, minus NEL.
func isSpace(r rune) bool {
	switch r {
	case '\ufeff':
		return true
	case '\u0085':
		return false
	}
	return unicode.IsSpace(r)
}

// ValidateNational classifies a sanitized value against the national
// mobile numbering plan. The first failing check wins. Length counts
// characters, so full-width digits are reported as a prefix or digit
// problem rather than a length one.
func ValidateNational(sanitized string) Result {
	if nationalMobile.MatchString(sanitized) {
		return Result{Kind: Valid}
	}

	length := utf8.RuneCountInString(sanitized)
	switch {
	case strings.TrimSpace(sanitized) == "":
		return Result{Kind: Empty}
	case length != NationalLength:
		return Result{Kind: WrongLength, Actual: length}
	case !strings.HasPrefix(sanitized, NationalPrefix):
		return Result{Kind: WrongPrefix}
	case !isDigits(sanitized):
		return Result{Kind: NonDigit}
	}

	return Result{Kind: Valid}
}

// ToInternational converts a validated national number to international form.
// Callers must run ValidateNational first; the output for other input is
// meaningless.
func ToInternational(nationalSanitized string) string {
	if nationalSanitized == "" {
		return CountryCode
	}
	return CountryCode + nationalSanitized[1:]
}

// ToNational converts an international value back to national form. Values
// already in national form pass through unchanged, so the function is
// idempotent.
func ToNational(international string) string {
	switch {
	case strings.HasPrefix(international, CountryCode):
		return trunkDigit + strings.TrimPrefix(international, CountryCode)
	case strings.HasPrefix(international, bareCountryCode):
		return trunkDigit + strings.TrimPrefix(international, bareCountryCode)
	default:
		return international
	}
}

// ForSubmission prepares user input for the outgoing "phone" field.
// Valid national input is converted to international form. Anything else is
// returned exactly as typed so the server can make the final call.
func ForSubmission(raw string) (string, Result) {
	res := ValidateNational(Sanitize(raw))
	if !res.OK() {
		return raw, res
	}
	return ToInternational(Sanitize(raw)), res
}

// ForDisplay prepares a stored value for an editable input.
func ForDisplay(stored string) string {
	trimmed := strings.TrimSpace(stored)
	if trimmed == "" {
		return ""
	}
	return ToNational(trimmed)
}

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// IsValidE164 reports whether input parses as a valid number, assuming the
// default region when no calling code is present.
func IsValidE164(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}
	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(number)
}

// Mask hides all but the last three digits, for logging.
func Mask(value string) string {
	digits := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	keep := 3
	out := []rune(value)
	for i := range out {
		if out[i] < '0' || out[i] > '9' {
			continue
		}
		if digits > keep {
			out[i] = '*'
		}
		digits--
	}
	return string(out)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
