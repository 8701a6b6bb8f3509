package security

import (
	"hash"
	"hash/crc32"
)

// CRC16 as used by the 03.48 redundancy check is CRC-16/X-25 (ISO/IEC 13239):
// polynomial 0x1021 processed reflected (0x8408), init 0xFFFF, final XOR 0xFFFF.
// The checksum is written big-endian.

const crc16X25Poly = 0x8408

var crc16X25Table [256]uint16

func init() {
	for i := 0; i < 256; i++ {
		crc := uint16(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ crc16X25Poly
			} else {
				crc >>= 1
			}
		}
		crc16X25Table[i] = crc
	}
}

type crc16X25 struct {
	crc uint16
}

func newCRC16() hash.Hash {
	return &crc16X25{crc: 0xFFFF}
}

func (c *crc16X25) Write(p []byte) (int, error) {
	for _, b := range p {
		c.crc = (c.crc >> 8) ^ crc16X25Table[byte(c.crc)^b]
	}
	return len(p), nil
}

func (c *crc16X25) Sum(b []byte) []byte {
	v := c.crc ^ 0xFFFF
	return append(b, byte(v>>8), byte(v))
}

func (c *crc16X25) Reset()         { c.crc = 0xFFFF }
func (c *crc16X25) Size() int      { return 2 }
func (c *crc16X25) BlockSize() int { return 1 }

// newCRC32 is the reflected CRC-32 of ISO/IEC 13239 (same as IEEE 802.3).
// hash/crc32 already appends the checksum big-endian.
func newCRC32() hash.Hash {
	return crc32.NewIEEE()
}
