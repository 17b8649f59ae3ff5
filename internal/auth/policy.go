package auth

import (
	"strings"
	"unicode"

	"papertrade/internal/apperr"
)

// PasswordSymbols are the characters that satisfy the symbol requirement.
const PasswordSymbols = "'\"`~!@#$%^&*()-+?_=,<>/"

// ValidatePassword requires at least one letter, one decimal digit and one
// symbol from PasswordSymbols. Digits are Unicode Nd, so '٣' counts and
// superscripts such as '²' do not.
func ValidatePassword(password string) error {
	var letter, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLetter(r):
			letter = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	if !letter || !digit || !symbol {
		return apperr.ErrWeakPassword
	}
	return nil
}
