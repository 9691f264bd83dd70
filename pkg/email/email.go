// Package email derives display names from addresses for outbound mail.
package email

import (
	"strings"
	"unicode"
)

// GreetingName turns an address into a presentable name for salutations:
// "jane.doe@example.com" becomes "Jane Doe". Falls back to "there" when
// nothing usable can be derived, so templates read "Hello there".
func GreetingName(address string) string {
	localPart := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "there"
	}

	for i, part := range parts {
		parts[i] = capitalize(part)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
