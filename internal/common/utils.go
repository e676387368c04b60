package common

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// FormatNumber renders f without trailing zeros ("5.1", "12").
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
