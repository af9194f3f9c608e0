// Package passwords scores password strength and generates random passwords.
package passwords

import "unicode/utf8"

const (
	Weak     = "Weak"
	Moderate = "Moderate"
	Strong   = "Strong"
)

// StrongLength is the length that earns the length point.
const StrongLength = 12

type Strength struct {
	Score    int    `json:"score"`
	Strength string `json:"strength"`
}

// CheckStrength awards one point each for length, upper case, lower case,
// digit and symbol. Anything outside ASCII letters and digits is a symbol.
func CheckStrength(password string) Strength {
	score := 0
	if utf8.RuneCountInString(password) >= StrongLength {
		score++
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch classOf(r) {
		case classUpper:
			upper = true
		case classLower:
			lower = true
		case classDigit:
			digit = true
		default:
			symbol = true
		}
	}
	for _, ok := range []bool{upper, lower, digit, symbol} {
		if ok {
			score++
		}
	}

	return Strength{Score: score, Strength: label(score)}
}

func label(score int) string {
	switch {
	case score <= 2:
		return Weak
	case score == 3:
		return Moderate
	default:
		return Strong
	}
}
