package bits

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet checks if the n-th bit is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// GetRange extracts the value from a range of bits (e.g., bits 4 to 3).
// Example: GetRange(0b00001100, 4, 3) returns 3 (0b11)
func GetRange(b byte, high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}

	return (b >> (low - 1)) & mask(high, low)
}

// Set sets the n-th bit (1 to 8).
func Set(b byte, n uint) byte {
	return b | Bit(n)
}

// SetIf sets the n-th bit when cond holds and returns b unchanged otherwise.
func SetIf(b byte, n uint, cond bool) byte {
	if !cond {
		return b
	}
	return Set(b, n)
}

// SetRange writes v into the bit range [high, low], clearing what was there.
// Bits of v that do not fit the range are dropped.
// Example: SetRange(0x00, 4, 3, 2) returns 0b00001000
func SetRange(b byte, high, low uint, v byte) byte {
	if high < low || high > 8 || low < 1 {
		return b
	}

	m := mask(high, low)
	b &^= m << (low - 1)
	return b | (v&m)<<(low-1)
}

// Fits reports whether v can be stored in the bit range [high, low].
func Fits(v byte, high, low uint) bool {
	if high < low || high > 8 || low < 1 {
		return false
	}
	return v&^mask(high, low) == 0
}

func mask(high, low uint) byte {
	width := high - low + 1
	return byte((1 << width) - 1)
}
