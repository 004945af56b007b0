// Package arabic normalizes Arabic-script numerals for parsing.
package arabic

import "strings"

// NormalizeDigits maps Arabic-Indic (٠-٩) and Extended Arabic-Indic (۰-۹)
// digits to ASCII and the Arabic decimal (٫) and thousands (٬) separators to
// '.' and ','. Other runes are left untouched.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r == '٫':
			return '.'
		case r == '٬':
			return ','
		}
		return r
	}, s)
}
