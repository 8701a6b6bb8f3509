// Package keygen derives per-card OTA keys from a master key and the card ICCID.
//
// The derived key is the DES/ECB encryption, under the 8-byte master key, of the
// last 8 bytes of the ICCID read as packed BCD. A 19-digit ICCID is completed with
// its Luhn check digit first; a 20-digit one must already carry a valid one.
package keygen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gregLibert/gsm0348/pkg/security"
)

const (
	// ICCIDLength is the number of digits of a complete ICCID.
	ICCIDLength = 20
	// MasterKeyLength is the DES master key size.
	MasterKeyLength = 8

	diversifierLength = 8
)

var (
	ErrInvalidICCID     = errors.New("invalid ICCID")
	ErrInvalidMasterKey = errors.New("invalid master key")
)

// LuhnDigit returns the check digit (0-9) that makes digits pass the Luhn check.
func LuhnDigit(digits string) (byte, error) {
	if err := onlyDigits(digits); err != nil {
		return 0, err
	}
	// The check digit will sit at the right, so doubling starts with the last digit.
	sum := luhnSum(digits, true)
	return byte((10 - sum%10) % 10), nil
}

// ValidLuhn reports whether s is a non-empty digit string whose last digit is a
// correct Luhn check digit.
func ValidLuhn(s string) bool {
	if s == "" || onlyDigits(s) != nil {
		return false
	}
	return luhnSum(s, false)%10 == 0
}

func luhnSum(digits string, doubleLast bool) int {
	sum := 0
	double := doubleLast
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum
}

func onlyDigits(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("%w: %q is not a digit", ErrInvalidICCID, s[i])
		}
	}
	return nil
}

// NormalizeICCID strips spaces, completes a 19-digit ICCID with its Luhn digit
// and checks the Luhn digit of a 20-digit one.
func NormalizeICCID(s string) (string, error) {
	iccid := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if err := onlyDigits(iccid); err != nil {
		return "", err
	}

	switch len(iccid) {
	case ICCIDLength - 1:
		d, err := LuhnDigit(iccid)
		if err != nil {
			return "", err
		}
		return iccid + string('0'+d), nil
	case ICCIDLength:
		if !ValidLuhn(iccid) {
			return "", fmt.Errorf("%w: %s fails the Luhn check", ErrInvalidICCID, iccid)
		}
		return iccid, nil
	default:
		return "", fmt.Errorf("%w: %d digits, expected %d or %d", ErrInvalidICCID, len(iccid), ICCIDLength-1, ICCIDLength)
	}
}

// Derive computes the card key for iccid. A nil engine uses a fresh one.
func Derive(engine *security.CipherEngine, masterKey []byte, iccid string) ([]byte, error) {
	normalized, err := NormalizeICCID(iccid)
	if err != nil {
		return nil, err
	}

	packed := make([]byte, len(normalized)/2)
	for i := range packed {
		packed[i] = (normalized[2*i]-'0')<<4 | (normalized[2*i+1] - '0')
	}
	return DeriveBytes(engine, masterKey, packed)
}

// DeriveBytes computes the card key from an already packed ICCID of at least
// 8 bytes. Only the last 8 bytes are used.
func DeriveBytes(engine *security.CipherEngine, masterKey, iccid []byte) ([]byte, error) {
	if len(masterKey) != MasterKeyLength {
		return nil, fmt.Errorf("%w: %d bytes, expected %d", ErrInvalidMasterKey, len(masterKey), MasterKeyLength)
	}
	if len(iccid) < diversifierLength {
		return nil, fmt.Errorf("%w: %d bytes, expected at least %d", ErrInvalidICCID, len(iccid), diversifierLength)
	}
	if engine == nil {
		engine = security.NewCipherEngine()
	}

	return engine.Encipher(security.Cipher(security.CipherDESECB), masterKey, iccid[len(iccid)-diversifierLength:])
}

// ParseEFICCID decodes the content of EF_ICCID: BCD with swapped nibbles,
// padded with F. The result is not Luhn checked.
func ParseEFICCID(raw []byte) (string, error) {
	var sb strings.Builder
	ended := false
	for _, b := range raw {
		for _, n := range [2]byte{b & 0x0F, b >> 4} {
			switch {
			case n == 0x0F:
				ended = true
			case ended || n > 9:
				return "", fmt.Errorf("%w: EF_ICCID content % X is not BCD", ErrInvalidICCID, raw)
			default:
				sb.WriteByte('0' + n)
			}
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: empty EF_ICCID", ErrInvalidICCID)
	}
	return sb.String(), nil
}
