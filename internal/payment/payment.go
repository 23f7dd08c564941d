// Package payment validates card details for the simulated checkout.
//
// Nothing here talks to a payment processor. Card data is checked for shape
// only and is never persisted.
package payment

import (
	"regexp"
	"strings"

	"github.com/sakif/madison-marketplace/internal/apperror"
)

var (
	cvcPattern    = regexp.MustCompile(`^\d{3,4}$`)
	expiryPattern = regexp.MustCompile(`^\d{1,2}/\d{2}$`)
)

// Luhn reports whether the digits in number pass the mod-10 checksum.
// Non-digit characters (spaces, dashes) are ignored; a number without any
// digits is invalid.
func Luhn(number string) bool {
	sum := 0
	digits := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			continue
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		digits++
		double = !double
	}
	return digits > 0 && sum%10 == 0
}

// CheckDigit returns the digit that makes prefix+digit pass Luhn.
func CheckDigit(prefix string) byte {
	sum := 0
	double := true
	for i := len(prefix) - 1; i >= 0; i-- {
		c := prefix[i]
		if c < '0' || c > '9' {
			continue
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return byte('0' + (10-sum%10)%10)
}

// Card is the checkout form. Call Wipe once the attempt is over.
type Card struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVC    string `json:"cvc"`
}

// Validate checks the card in form order and returns the first failure as
// a validation error carrying the message shown to the buyer.
func (c *Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.ValidationFailed("name", "Please enter the cardholder's name.")
	}
	if !Luhn(c.Number) {
		return apperror.ValidationFailed("number", "Invalid card number.")
	}
	if !cvcPattern.MatchString(c.CVC) {
		return apperror.ValidationFailed("cvc", "Invalid CVC.")
	}
	if !expiryPattern.MatchString(c.Expiry) {
		return apperror.ValidationFailed("expiry", "Expiry must be MM/YY.")
	}
	return nil
}

// Wipe drops every field. Go strings are immutable, so this only releases
// our references; copies made elsewhere are out of reach.
func (c *Card) Wipe() {
	*c = Card{}
}
