// Package validate provides the pure syntax validators used across the API:
// display names, UUIDs, email addresses and request timestamps. Every
// function is total over strings and never panics.
package validate

import (
	"time"
)

const (
	// NameMin and NameMax bound user, station and API-key display names.
	NameMin = 3
	NameMax = 30

	// TimestampLayout is the only accepted request timestamp format.
	TimestampLayout = "2006-01-02T15:04:05"
)

// Name reports whether s is a valid display name: 3-30 characters from
// [A-Za-z0-9_-].
func Name(s string) bool {
	if len(s) < NameMin || len(s) > NameMax {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isNameChar(s[i]) {
			return false
		}
	}
	return true
}

// UUID reports whether s has canonical UUID syntax: 36 characters, hex
// digits except dashes at positions 8, 13, 18 and 23.
func UUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i := 0; i < 36; i++ {
		c := s[i]
		if i == 8 || i == 13 || i == 18 || i == 23 {
			if c != '-' {
				return false
			}
		} else if !isHexDigit(c) {
			return false
		}
	}
	return true
}

// Email reports whether s is an acceptable address: a local part of
// [A-Za-z0-9._+-] characters, exactly one '@' not at position 0, a domain of
// [A-Za-z0-9.-] characters containing at least one '.', and an alphabetic TLD.
func Email(s string) bool {
	at := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '@' {
			if at != -1 {
				return false
			}
			at = i
		}
	}
	if at <= 0 {
		return false
	}

	dot := -1
	for i := len(s) - 1; i > at; i-- {
		if s[i] == '.' {
			dot = i
			break
		}
	}
	if dot == -1 {
		return false
	}
	if dot < at+2 {
		return false
	}
	if dot == len(s)-1 {
		return false
	}

	for i := 0; i < at; i++ {
		c := s[i]
		if !(isAlnum(c) || c == '.' || c == '_' || c == '-' || c == '+') {
			return false
		}
	}
	for i := at + 1; i < dot; i++ {
		c := s[i]
		if !(isAlnum(c) || c == '.' || c == '-') {
			return false
		}
	}
	for i := dot + 1; i < len(s); i++ {
		if !isAlpha(s[i]) {
			return false
		}
	}
	return true
}

// Timestamp reports whether s parses strictly as YYYY-MM-DDTHH:MM:SS with no
// trailing characters.
func Timestamp(s string) bool {
	_, err := time.Parse(TimestampLayout, s)
	return err == nil
}

func isNameChar(c byte) bool {
	return isAlnum(c) || c == '-' || c == '_'
}

func isAlnum(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9')
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
