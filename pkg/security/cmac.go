package security

import (
	"crypto/aes"
	"hash"

	"github.com/aead/cmac"
)

// truncated keeps the leading size bytes of the wrapped hash.
type truncated struct {
	hash.Hash
	size int
}

func (t *truncated) Sum(b []byte) []byte {
	return append(b, t.Hash.Sum(nil)[:t.size]...)
}

func (t *truncated) Size() int { return t.size }

// newAESCMAC computes the standard 16-byte AES-CMAC (RFC 4493) and keeps
// its first size bytes.
func newAESCMAC(key []byte, size int) (hash.Hash, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, cryptoErrorf("AES CMAC key must be 16, 24 or 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, wrapCrypto(err, "create AES cipher for CMAC")
	}

	h, err := cmac.NewWithTagSize(block, block.BlockSize())
	if err != nil {
		return nil, wrapCrypto(err, "create CMAC")
	}
	return &truncated{Hash: h, size: size}, nil
}
