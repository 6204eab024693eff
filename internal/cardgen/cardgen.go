// internal/cardgen/cardgen.go
package cardgen

import (
	"crypto/rand"
	"strings"
)

const (
	// NetworkDigit is the leading digit of every generated PAN.
	NetworkDigit = '4'
	// Length is the number of digits of a generated PAN.
	Length = 16
)

// Generate returns a 16-digit PAN starting with NetworkDigit whose last digit is
// the Luhn check digit. The 14 digits in between are uniformly random.
// Uniqueness is probabilistic and is not checked against stored cards.
func Generate() string {
	var builder strings.Builder
	builder.Grow(Length)
	builder.WriteByte(NetworkDigit)
	for builder.Len() < Length-1 {
		builder.WriteByte('0' + randomDigit())
	}
	payload := builder.String()
	return payload + string(CheckDigit(payload))
}

// randomDigit draws a digit from crypto/rand, rejecting bytes >= 250 to avoid modulo bias.
func randomDigit() byte {
	var b [1]byte
	for {
		// crypto/rand.Read never returns an error; it crashes the program if the OS source fails.
		_, _ = rand.Read(b[:])
		if b[0] < 250 {
			return b[0] % 10
		}
	}
}

// CheckDigit computes the Luhn check digit to append to payload.
func CheckDigit(payload string) byte {
	sum := 0
	double := true
	for i := len(payload) - 1; i >= 0; i-- {
		d := int(payload[i] - '0')
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

// ValidLuhn reports whether pan consists of digits only and passes the Luhn checksum.
func ValidLuhn(pan string) bool {
	if len(pan) < 2 {
		return false
	}
	for i := 0; i < len(pan); i++ {
		if pan[i] < '0' || pan[i] > '9' {
			return false
		}
	}
	return CheckDigit(pan[:len(pan)-1]) == pan[len(pan)-1]
}
