package coding

import (
	"fmt"

	"github.com/gregLibert/gsm0348/pkg/bits"
)

// Key and algorithm Identifier for Ciphering (KIC), ETSI TS 102.225 section 5.1.2.
//
// Bits 2-1: Algorithm.
//   - 00: Algorithm known implicitly by both entities.
//   - 01: DES.
//   - 10: AES.
//   - 11: Proprietary implementation.
// Bits 4-3: Mode, meaningful for DES and AES only.
//   - DES: 00 CBC, 01 Triple DES outer-CBC 2 keys, 10 Triple DES outer-CBC 3 keys, 11 ECB.
//   - AES: 00 CBC, other values reserved.
// Bits 8-5: Keyset identifier (0-15).

// KICAlgorithm is the ciphering algorithm family of a KIC byte.
type KICAlgorithm byte

const (
	KICKnownByBoth  KICAlgorithm = 0
	KICDES          KICAlgorithm = 1
	KICAES          KICAlgorithm = 2
	KICProprietary  KICAlgorithm = 3
	maxKICAlgorithm              = KICProprietary
)

func (a KICAlgorithm) String() string {
	switch a {
	case KICKnownByBoth:
		return "Known by both entities"
	case KICDES:
		return "DES"
	case KICAES:
		return "AES"
	case KICProprietary:
		return "Proprietary"
	default:
		return fmt.Sprintf("KICAlgorithm(%d)", byte(a))
	}
}

// CipherMode is the chaining mode selected in a KIC.
// CipherUnspecified is the only legal value for known-by-both and proprietary algorithms.
type CipherMode byte

const (
	CipherUnspecified CipherMode = iota
	CipherDESCBC
	CipherTripleDES2Key
	CipherTripleDES3Key
	CipherDESECB
	CipherAESCBC
)

func (m CipherMode) String() string {
	switch m {
	case CipherUnspecified:
		return "Unspecified"
	case CipherDESCBC:
		return "DES CBC"
	case CipherTripleDES2Key:
		return "Triple DES CBC 2 keys"
	case CipherTripleDES3Key:
		return "Triple DES CBC 3 keys"
	case CipherDESECB:
		return "DES ECB"
	case CipherAESCBC:
		return "AES CBC"
	default:
		return fmt.Sprintf("CipherMode(%d)", byte(m))
	}
}

var desCipherModes = [4]CipherMode{CipherDESCBC, CipherTripleDES2Key, CipherTripleDES3Key, CipherDESECB}

// KIC identifies the ciphering key and algorithm.
type KIC struct {
	Algorithm KICAlgorithm
	Mode      CipherMode
	Keyset    uint8
}

// DecodeKIC parses a KIC byte.
func DecodeKIC(b byte) (KIC, error) {
	k := KIC{
		Algorithm: KICAlgorithm(bits.GetRange(b, 2, 1)),
		Keyset:    bits.GetRange(b, 8, 5),
	}
	mode := bits.GetRange(b, 4, 3)

	switch k.Algorithm {
	case KICDES:
		k.Mode = desCipherModes[mode]
	case KICAES:
		if mode != 0 {
			return KIC{}, fieldErr("KIC", b, "AES mode %d is reserved", mode)
		}
		k.Mode = CipherAESCBC
	default:
		if mode != 0 {
			return KIC{}, fieldErr("KIC", b, "mode bits must be zero for %s", k.Algorithm)
		}
	}

	return k, nil
}

// Encode converts the KIC back to its byte representation.
func (k KIC) Encode() (byte, error) {
	if k.Algorithm > maxKICAlgorithm {
		return 0, fieldErr("KIC", byte(k.Algorithm), "unknown algorithm")
	}
	if !bits.Fits(k.Keyset, 4, 1) {
		return 0, fieldErr("KIC", k.Keyset, "keyset %d out of range (max 15)", k.Keyset)
	}

	mode, err := k.modeBits()
	if err != nil {
		return 0, err
	}

	var b byte
	b = bits.SetRange(b, 2, 1, byte(k.Algorithm))
	b = bits.SetRange(b, 4, 3, mode)
	b = bits.SetRange(b, 8, 5, k.Keyset)
	return b, nil
}

func (k KIC) modeBits() (byte, error) {
	switch k.Algorithm {
	case KICDES:
		for i, m := range desCipherModes {
			if m == k.Mode {
				return byte(i), nil
			}
		}
	case KICAES:
		if k.Mode == CipherAESCBC {
			return 0, nil
		}
	default:
		if k.Mode == CipherUnspecified {
			return 0, nil
		}
	}
	return 0, fieldErr("KIC", byte(k.Mode), "mode %s is not valid for %s", k.Mode, k.Algorithm)
}

// Verbose returns a human-readable description of the KIC.
func (k KIC) Verbose() string {
	return fmt.Sprintf("Algorithm: %s\nMode: %s\nKeyset: %d", k.Algorithm, k.Mode, k.Keyset)
}
