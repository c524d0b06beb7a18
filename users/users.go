package users

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultGreetingName is shown when nothing is known about the user.
const DefaultGreetingName = "User"

// GreetingName turns a display name into the name used in the greeting:
// the local part of an e-mail address with its first letter upper-cased.
// Display names that are not e-mail addresses are used as they are.
func GreetingName(displayName string) string {
	name := strings.TrimSpace(displayName)
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return DefaultGreetingName
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
