package coding

import (
	"fmt"

	"github.com/gregLibert/gsm0348/pkg/bits"
)

// Key and algorithm Identifier for RC/CC/DS (KID), ETSI TS 102.225 section 5.1.3.
//
// The meaning of bits 4-1 depends on the certification mode carried by the SPI,
// so decoding always takes that mode as an explicit parameter.
//
// Under RC:
//   Bits 2-1: 00 known by both, 01 CRC, 10 reserved, 11 proprietary.
//   Bits 4-3 (CRC): 00 CRC16, 01 CRC32, other values reserved.
//
// Under CC:
//   Bits 2-1: 00 known by both, 01 DES, 10 AES, 11 proprietary.
//   Bits 4-3 (DES): 00 CBC, 01 Triple DES 2 keys, 10 Triple DES 3 keys, 11 reserved.
//   Bits 4-3 (AES): 00 CMAC, other values reserved.
//
// Under DS: not supported.
// Without certification: bits 4-1 must be zero.
//
// Bits 8-5: Keyset identifier (0-15).

// KIDAlgorithm is the integrity algorithm family of a KID byte.
type KIDAlgorithm byte

const (
	KIDKnownByBoth KIDAlgorithm = iota
	KIDDES
	KIDAES
	KIDCRC
	KIDProprietary
)

func (a KIDAlgorithm) String() string {
	switch a {
	case KIDKnownByBoth:
		return "Known by both entities"
	case KIDDES:
		return "DES"
	case KIDAES:
		return "AES"
	case KIDCRC:
		return "CRC"
	case KIDProprietary:
		return "Proprietary"
	default:
		return fmt.Sprintf("KIDAlgorithm(%d)", byte(a))
	}
}

// MacMode is the integrity mode selected in a KID.
type MacMode byte

const (
	MacUnspecified MacMode = iota
	MacDESCBC
	MacTripleDES2Key
	MacTripleDES3Key
	MacAESCMAC
	MacCRC16
	MacCRC32
)

func (m MacMode) String() string {
	switch m {
	case MacUnspecified:
		return "Unspecified"
	case MacDESCBC:
		return "DES CBC"
	case MacTripleDES2Key:
		return "Triple DES CBC 2 keys"
	case MacTripleDES3Key:
		return "Triple DES CBC 3 keys"
	case MacAESCMAC:
		return "AES CMAC"
	case MacCRC16:
		return "CRC16"
	case MacCRC32:
		return "CRC32"
	default:
		return fmt.Sprintf("MacMode(%d)", byte(m))
	}
}

// KID identifies the integrity key and algorithm.
type KID struct {
	Algorithm KIDAlgorithm
	Mode      MacMode
	Keyset    uint8
}

// DecodeKID parses a KID byte under the given certification mode.
func DecodeKID(b byte, mode CertificationMode) (KID, error) {
	k := KID{Keyset: bits.GetRange(b, 8, 5)}
	alg := bits.GetRange(b, 2, 1)
	m := bits.GetRange(b, 4, 3)

	switch mode {
	case NoSecurity:
		if bits.GetRange(b, 4, 1) != 0 {
			return KID{}, fieldErr("KID", b, "algorithm bits must be zero without certification")
		}
		return k, nil

	case RC:
		switch alg {
		case 0:
			k.Algorithm = KIDKnownByBoth
		case 1:
			k.Algorithm = KIDCRC
			switch m {
			case 0:
				k.Mode = MacCRC16
			case 1:
				k.Mode = MacCRC32
			default:
				return KID{}, fieldErr("KID", b, "CRC mode %d is reserved", m)
			}
			return k, nil
		case 2:
			return KID{}, fieldErr("KID", b, "algorithm 2 is reserved under RC")
		case 3:
			k.Algorithm = KIDProprietary
		}

	case CC:
		switch alg {
		case 0:
			k.Algorithm = KIDKnownByBoth
		case 1:
			k.Algorithm = KIDDES
			switch m {
			case 0:
				k.Mode = MacDESCBC
			case 1:
				k.Mode = MacTripleDES2Key
			case 2:
				k.Mode = MacTripleDES3Key
			default:
				return KID{}, fieldErr("KID", b, "DES mode 3 is reserved")
			}
			return k, nil
		case 2:
			if m != 0 {
				return KID{}, fieldErr("KID", b, "AES mode %d is reserved", m)
			}
			k.Algorithm = KIDAES
			k.Mode = MacAESCMAC
			return k, nil
		case 3:
			k.Algorithm = KIDProprietary
		}

	default:
		return KID{}, fieldErr("KID", b, "certification mode %s is not supported", mode)
	}

	// Known by both / proprietary carry no mode.
	if m != 0 {
		return KID{}, fieldErr("KID", b, "mode bits must be zero for %s", k.Algorithm)
	}
	return k, nil
}

// Encode converts the KID back to its byte representation.
// The encoding itself does not depend on the certification mode; use ValidFor to
// check that the KID is legal for a given mode.
func (k KID) Encode() (byte, error) {
	if !bits.Fits(k.Keyset, 4, 1) {
		return 0, fieldErr("KID", k.Keyset, "keyset %d out of range (max 15)", k.Keyset)
	}

	var alg, mode byte
	switch {
	case k.Algorithm == KIDKnownByBoth && k.Mode == MacUnspecified:
		alg = 0
	case k.Algorithm == KIDProprietary && k.Mode == MacUnspecified:
		alg = 3
	case k.Algorithm == KIDDES && k.Mode == MacDESCBC:
		alg, mode = 1, 0
	case k.Algorithm == KIDDES && k.Mode == MacTripleDES2Key:
		alg, mode = 1, 1
	case k.Algorithm == KIDDES && k.Mode == MacTripleDES3Key:
		alg, mode = 1, 2
	case k.Algorithm == KIDAES && k.Mode == MacAESCMAC:
		alg = 2
	case k.Algorithm == KIDCRC && k.Mode == MacCRC16:
		alg, mode = 1, 0
	case k.Algorithm == KIDCRC && k.Mode == MacCRC32:
		alg, mode = 1, 1
	default:
		return 0, fieldErr("KID", byte(k.Mode), "mode %s is not valid for %s", k.Mode, k.Algorithm)
	}

	var b byte
	b = bits.SetRange(b, 2, 1, alg)
	b = bits.SetRange(b, 4, 3, mode)
	b = bits.SetRange(b, 8, 5, k.Keyset)
	return b, nil
}

// ValidFor reports whether the KID can be carried under the certification mode.
func (k KID) ValidFor(mode CertificationMode) error {
	ok := false
	switch mode {
	case NoSecurity:
		ok = k.Algorithm == KIDKnownByBoth && k.Mode == MacUnspecified
	case RC:
		ok = k.Algorithm == KIDKnownByBoth || k.Algorithm == KIDCRC || k.Algorithm == KIDProprietary
	case CC:
		ok = k.Algorithm == KIDKnownByBoth || k.Algorithm == KIDDES || k.Algorithm == KIDAES || k.Algorithm == KIDProprietary
	}
	if !ok {
		return fmt.Errorf("%w: KID %s/%s is not valid under %s", ErrCoding, k.Algorithm, k.Mode, mode)
	}
	return nil
}

// Verbose returns a human-readable description of the KID.
func (k KID) Verbose() string {
	return fmt.Sprintf("Algorithm: %s\nMode: %s\nKeyset: %d", k.Algorithm, k.Mode, k.Keyset)
}
