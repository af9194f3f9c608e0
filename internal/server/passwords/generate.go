package passwords

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/cyberguard/internal/common"
)

const (
	DefaultLength = 16
	MaxLength     = 128

	upperChars    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars    = "abcdefghijklmnopqrstuvwxyz"
	digitChars    = "0123456789"
	symbolChars   = "!@#$%^&*()_+-=[]{}|;:,.<>?"
	fallbackChars = lowerChars + digitChars
)

type charClass int

const (
	classUpper charClass = iota
	classLower
	classDigit
	classSymbol
)

func classOf(r rune) charClass {
	switch {
	case r >= 'A' && r <= 'Z':
		return classUpper
	case r >= 'a' && r <= 'z':
		return classLower
	case r >= '0' && r <= '9':
		return classDigit
	default:
		return classSymbol
	}
}

var classChars = map[charClass]string{
	classUpper:  upperChars,
	classLower:  lowerChars,
	classDigit:  digitChars,
	classSymbol: symbolChars,
}

// Options selects the generated length and character classes.
type Options struct {
	Length  int
	Upper   bool
	Lower   bool
	Numbers bool
	Symbols bool
}

// DefaultOptions enables every class at DefaultLength.
func DefaultOptions() Options {
	return Options{Length: DefaultLength, Upper: true, Lower: true, Numbers: true, Symbols: true}
}

func (o Options) classes() []charClass {
	var cs []charClass
	if o.Upper {
		cs = append(cs, classUpper)
	}
	if o.Lower {
		cs = append(cs, classLower)
	}
	if o.Numbers {
		cs = append(cs, classDigit)
	}
	if o.Symbols {
		cs = append(cs, classSymbol)
	}
	return cs
}

// NormalizeLength maps non-positive lengths to DefaultLength and caps the
// rest at MaxLength.
func NormalizeLength(n int) int {
	if n <= 0 {
		return DefaultLength
	}
	if n > MaxLength {
		return MaxLength
	}
	return n
}

// ParseLength reads a length query value. Unparsable input gives DefaultLength.
func ParseLength(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultLength
	}
	return NormalizeLength(n)
}

// Generate samples characters from the selected classes with crypto/rand and
// makes sure each selected class appears at least once when the length
// allows it. With no class selected it draws from lower case letters and
// digits.
func Generate(o Options) (string, error) {
	length := NormalizeLength(o.Length)
	classes := o.classes()

	var set strings.Builder
	for _, c := range classes {
		set.WriteString(classChars[c])
	}
	chars := set.String()
	if chars == "" {
		chars = fallbackChars
	}

	out := make([]byte, length)
	for i := range out {
		b, err := pick(chars)
		if err != nil {
			return "", err
		}
		out[i] = b
	}

	if err := cover(out, classes); err != nil {
		return "", err
	}
	return string(out), nil
}

// cover overwrites one character for every class missing from out. Only
// positions whose class occurs more than once are replaced, and each
// position at most once, so a patch never removes another class.
func cover(out []byte, classes []charClass) error {
	counts := make(map[charClass]int, len(classes))
	for _, b := range out {
		counts[classOf(rune(b))]++
	}

	patched := make([]bool, len(out))
	for _, c := range classes {
		if counts[c] > 0 {
			continue
		}

		var candidates []int
		for i, b := range out {
			if !patched[i] && counts[classOf(rune(b))] > 1 {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			return nil
		}

		n, err := common.RandIndex(len(candidates))
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
		pos := candidates[n]

		b, err := pick(classChars[c])
		if err != nil {
			return err
		}
		counts[classOf(rune(out[pos]))]--
		counts[c]++
		out[pos] = b
		patched[pos] = true
	}
	return nil
}

func pick(chars string) (byte, error) {
	n, err := common.RandIndex(len(chars))
	if err != nil {
		return 0, fmt.Errorf("generate password: %w", err)
	}
	return chars[n], nil
}
