package domain

import (
	"bytes"
	"strings"

	"legal_intake_backend/platform/phone"

	"github.com/google/uuid"
)

// MatchType names the contact fields that made an intake a likely duplicate.
type MatchType string

const (
	MatchNone  MatchType = ""
	MatchEmail MatchType = "email"
	MatchPhone MatchType = "phone"
	MatchBoth  MatchType = "both"
)

// Candidate is the contact information being checked for duplicates.
type Candidate struct {
	Email *string
	Phone *string
}

// MatchResult is the outcome of MatchContacts. ContactID is zero when
// MatchType is MatchNone.
type MatchResult struct {
	MatchType MatchType
	ContactID uuid.UUID
}

// IsDuplicate reports whether a contact matched.
func (r MatchResult) IsDuplicate() bool {
	return r.MatchType != MatchNone
}

// NormalizeEmail is the comparison form of an email address.
func NormalizeEmail(email *string) string {
	if email == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*email))
}

// NormalizePhone is the comparison form of a phone number: the digits of
// its parsed international form, whatever format it was stored in.
func NormalizePhone(p *string) string {
	if p == nil {
		return ""
	}
	return phone.MatchKey(*p)
}

// PhoneDigitForms lists the stored digit strings that may normalize to the
// same comparison form as p.
func PhoneDigitForms(p *string) []string {
	if p == nil {
		return nil
	}
	return phone.DigitForms(*p)
}

// MatchContacts compares candidate against contacts.
//
// A field matches when both sides are non-empty and equal after
// normalization. MatchBoth requires one contact to match on both fields.
// Otherwise email is consulted before phone. When several contacts qualify
// for the chosen match type, the most recently updated one wins, then the
// lowest id. The result does not depend on the order of contacts.
func MatchContacts(candidate Candidate, contacts []Contact) MatchResult {
	email := NormalizeEmail(candidate.Email)
	digits := NormalizePhone(candidate.Phone)
	if email == "" && digits == "" {
		return MatchResult{}
	}

	var both, byEmail, byPhone []Contact
	for _, c := range contacts {
		emailHit := email != "" && NormalizeEmail(c.Email) == email
		phoneHit := digits != "" && NormalizePhone(c.Phone) == digits
		if emailHit && phoneHit {
			both = append(both, c)
		}
		if emailHit {
			byEmail = append(byEmail, c)
		}
		if phoneHit {
			byPhone = append(byPhone, c)
		}
	}

	switch {
	case len(both) > 0:
		return MatchResult{MatchType: MatchBoth, ContactID: preferred(both).ID}
	case len(byEmail) > 0:
		return MatchResult{MatchType: MatchEmail, ContactID: preferred(byEmail).ID}
	case len(byPhone) > 0:
		return MatchResult{MatchType: MatchPhone, ContactID: preferred(byPhone).ID}
	default:
		return MatchResult{}
	}
}

func preferred(contacts []Contact) Contact {
	best := contacts[0]
	for _, c := range contacts[1:] {
		switch {
		case c.UpdatedAt.After(best.UpdatedAt):
			best = c
		case c.UpdatedAt.Equal(best.UpdatedAt) && bytes.Compare(c.ID[:], best.ID[:]) < 0:
			best = c
		}
	}
	return best
}
