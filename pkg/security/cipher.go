package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"strings"
	"sync"
)

// ExternalCipher is a block cipher supplied by the caller under a free-text name,
// for KIC values that say "known by both entities" or "proprietary".
// Implementations receive block-aligned data and must not pad.
type ExternalCipher interface {
	BlockSize() int
	Encrypt(key, data []byte) ([]byte, error)
	Decrypt(key, data []byte) ([]byte, error)
}

// CipherEngine enciphers and deciphers whole, pre-aligned buffers.
// CBC modes always start from a zero initial chaining value and no padding is ever added.
type CipherEngine struct {
	mu       sync.RWMutex
	external map[string]ExternalCipher
}

// NewCipherEngine creates an engine that knows the native kinds only.
func NewCipherEngine() *CipherEngine {
	return &CipherEngine{external: make(map[string]ExternalCipher)}
}

// Register makes an external cipher available under name.
func (e *CipherEngine) Register(name string, c ExternalCipher) error {
	name = strings.TrimSpace(name)
	if name == "" || c == nil {
		return cryptoErrorf("cannot register an unnamed or nil cipher")
	}
	if alg, _ := ParseCipher(name); alg.Kind != CipherExternal {
		return cryptoErrorf("%q is a native cipher and cannot be replaced", name)
	}
	if c.BlockSize() <= 0 {
		return cryptoErrorf("cipher %q reports block size %d", name, c.BlockSize())
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.external[name] = c
	return nil
}

// BlockSize returns the block size in bytes of the cipher.
func (e *CipherEngine) BlockSize(alg CipherAlgorithm) (int, error) {
	switch alg.Kind {
	case CipherDESCBC, CipherDESECB, CipherTripleDESCBC, CipherTripleDESECB:
		return des.BlockSize, nil
	case CipherAESCBC, CipherAESECB:
		return aes.BlockSize, nil
	case CipherExternal:
		c, err := e.lookup(alg.Name)
		if err != nil {
			return 0, err
		}
		return c.BlockSize(), nil
	default:
		return 0, cryptoErrorf("unknown cipher %s", alg)
	}
}

// Encipher encrypts data, which must be a multiple of the block size.
func (e *CipherEngine) Encipher(alg CipherAlgorithm, key, data []byte) ([]byte, error) {
	return e.run(alg, key, data, true)
}

// Decipher decrypts data, which must be a multiple of the block size.
func (e *CipherEngine) Decipher(alg CipherAlgorithm, key, data []byte) ([]byte, error) {
	return e.run(alg, key, data, false)
}

func (e *CipherEngine) run(alg CipherAlgorithm, key, data []byte, encrypt bool) ([]byte, error) {
	bs, err := e.BlockSize(alg)
	if err != nil {
		return nil, err
	}
	if len(data)%bs != 0 {
		return nil, cryptoErrorf("%s: input length %d is not a multiple of %d", alg, len(data), bs)
	}

	if alg.Kind == CipherExternal {
		c, err := e.lookup(alg.Name)
		if err != nil {
			return nil, err
		}
		var out []byte
		if encrypt {
			out, err = c.Encrypt(key, data)
		} else {
			out, err = c.Decrypt(key, data)
		}
		if err != nil {
			return nil, wrapCrypto(err, "%s", alg)
		}
		if len(out) != len(data) {
			return nil, cryptoErrorf("%s returned %d bytes for %d", alg, len(out), len(data))
		}
		return out, nil
	}

	block, err := newBlock(alg.Kind, key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	if alg.isCBC() {
		iv := make([]byte, bs)
		if encrypt {
			cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, data)
		} else {
			cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
		}
		return out, nil
	}

	for i := 0; i < len(data); i += bs {
		if encrypt {
			block.Encrypt(out[i:i+bs], data[i:i+bs])
		} else {
			block.Decrypt(out[i:i+bs], data[i:i+bs])
		}
	}
	return out, nil
}

func (e *CipherEngine) lookup(name string) (ExternalCipher, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	c, ok := e.external[name]
	if !ok {
		return nil, cryptoErrorf("no cipher registered as %q", name)
	}
	return c, nil
}

// newBlock builds the primitive for a native kind and checks the key length.
func newBlock(kind CipherKind, key []byte) (cipher.Block, error) {
	switch kind {
	case CipherDESCBC, CipherDESECB:
		if len(key) != 8 {
			return nil, cryptoErrorf("DES key must be 8 bytes, got %d", len(key))
		}
		return des.NewCipher(key)
	case CipherTripleDESCBC, CipherTripleDESECB:
		return newTripleDES(key)
	case CipherAESCBC, CipherAESECB:
		switch len(key) {
		case 16, 24, 32:
			return aes.NewCipher(key)
		}
		return nil, cryptoErrorf("AES key must be 16, 24 or 32 bytes, got %d", len(key))
	default:
		return nil, cryptoErrorf("no native block cipher for kind %d", int(kind))
	}
}

// newTripleDES accepts a 2-key (K1 K2, expanded to K1 K2 K1) or a 3-key bundle.
func newTripleDES(key []byte) (cipher.Block, error) {
	switch len(key) {
	case 16:
		k := make([]byte, 0, 24)
		k = append(k, key...)
		k = append(k, key[:8]...)
		return des.NewTripleDESCipher(k)
	case 24:
		return des.NewTripleDESCipher(key)
	}
	return nil, cryptoErrorf("Triple DES key must be 16 or 24 bytes, got %d", len(key))
}
