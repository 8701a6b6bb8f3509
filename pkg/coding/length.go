package coding

import "fmt"

// Length fields used by the 03.48 framing.
//
// 1. BER definite length (CAT_TP, TCP/IP, USSD outer length):
//   - 0..127:           1 byte, the value itself.
//   - 128..255:         81 XX
//   - 256..65535:       82 XX XX
//   - 65536..16777215:  83 XX XX XX
//     The long form is always big-endian. Wider counts are rejected.
//
// 2. Fixed width (SMS outer length is 2 bytes, the header length is 1 byte).

const (
	// MaxBERLength is the largest value the long form with 3 octets can carry.
	MaxBERLength = 0xFFFFFF
	// MaxLength1 is the largest value of a single-byte length.
	MaxLength1 = 0xFF
	// MaxLength2 is the largest value of a two-byte length.
	MaxLength2 = 0xFFFF
)

// EncodeLength returns the shortest BER definite-length encoding of n.
func EncodeLength(n int) ([]byte, error) {
	switch {
	case n < 0:
		return nil, fmt.Errorf("%w: negative length %d", ErrCoding, n)
	case n < 0x80:
		return []byte{byte(n)}, nil
	case n <= 0xFF:
		return []byte{0x81, byte(n)}, nil
	case n <= 0xFFFF:
		return []byte{0x82, byte(n >> 8), byte(n)}, nil
	case n <= MaxBERLength:
		return []byte{0x83, byte(n >> 16), byte(n >> 8), byte(n)}, nil
	default:
		return nil, fmt.Errorf("%w: length %d too large", ErrCoding, n)
	}
}

// DecodeLength reads a BER definite length at the start of b.
// It returns the value and the number of bytes consumed.
func DecodeLength(b []byte) (n int, size int, err error) {
	if len(b) == 0 {
		return 0, 0, fmt.Errorf("%w: empty length field", ErrCoding)
	}

	first := b[0]
	if first&0x80 == 0 {
		return int(first), 1, nil
	}

	count := int(first & 0x7F)
	if count == 0 {
		return 0, 0, fmt.Errorf("%w: indefinite length form is not allowed", ErrCoding)
	}
	if count > 3 {
		return 0, 0, fmt.Errorf("%w: length on %d octets is too wide", ErrCoding, count)
	}
	if len(b) < 1+count {
		return 0, 0, fmt.Errorf("%w: length field truncated (need %d bytes, have %d)", ErrCoding, 1+count, len(b))
	}

	for _, o := range b[1 : 1+count] {
		n = n<<8 | int(o)
	}
	return n, 1 + count, nil
}

// EncodeLength1 encodes n on exactly one byte.
func EncodeLength1(n int) ([]byte, error) {
	if n < 0 || n > MaxLength1 {
		return nil, fmt.Errorf("%w: length %d does not fit in 1 byte", ErrCoding, n)
	}
	return []byte{byte(n)}, nil
}

// EncodeLength2 encodes n on exactly two bytes, big-endian.
func EncodeLength2(n int) ([]byte, error) {
	if n < 0 || n > MaxLength2 {
		return nil, fmt.Errorf("%w: length %d does not fit in 2 bytes", ErrCoding, n)
	}
	return []byte{byte(n >> 8), byte(n)}, nil
}

// DecodeLength1 reads a single-byte length.
func DecodeLength1(b []byte) (int, error) {
	if len(b) < 1 {
		return 0, fmt.Errorf("%w: missing 1-byte length", ErrCoding)
	}
	return int(b[0]), nil
}

// DecodeLength2 reads a two-byte big-endian length.
func DecodeLength2(b []byte) (int, error) {
	if len(b) < 2 {
		return 0, fmt.Errorf("%w: missing 2-byte length", ErrCoding)
	}
	return int(b[0])<<8 | int(b[1]), nil
}
