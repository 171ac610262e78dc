// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

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

// MatchKey is the comparison form used for duplicate detection: the digits
// of the number's E.164 form when it parses as a possible number, else its
// bare digits. Stored and submitted numbers go through the same parse, so
// "415-867-5309" and "+1 415 867 5309" both yield "14158675309".
func MatchKey(input string) string {
	trimmed := strings.TrimSpace(input)
	if Digits(trimmed) == "" {
		return ""
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil || !phonenumbers.IsPossibleNumber(number) {
		return Digits(trimmed)
	}
	return Digits(phonenumbers.Format(number, phonenumbers.E164))
}

// DigitForms lists the digit strings a stored number sharing input's
// MatchKey can reduce to: the key, the national significant number and the
// input's own digits. Repositories prefilter on these before the exact
// MatchKey comparison.
func DigitForms(input string) []string {
	key := MatchKey(input)
	if key == "" {
		return nil
	}

	forms := []string{key}
	add := func(f string) {
		if f == "" {
			return
		}
		for _, existing := range forms {
			if existing == f {
				return
			}
		}
		forms = append(forms, f)
	}

	if number, err := phonenumbers.Parse(strings.TrimSpace(input), defaultRegion); err == nil {
		add(phonenumbers.GetNationalSignificantNumber(number))
	}
	add(Digits(input))
	return forms
}

// Digits returns only the ASCII digits of input. It is the comparison form
// used for duplicate detection, so "+1 (555) 010-2030" and "15550102030"
// compare equal.
func Digits(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
