package security

import (
	"crypto/hmac"
	"hash"
	"strings"
	"sync"
)

// ExternalMac is an integrity algorithm supplied by the caller under a free-text name,
// for KID values that say "known by both entities" or "proprietary".
type ExternalMac interface {
	// New returns a fresh MAC keyed with key.
	New(key []byte) (hash.Hash, error)
	// Size is the declared signature length in bytes.
	Size() int
}

// SignatureManager dispatches a MacAlgorithm to its engine.
type SignatureManager struct {
	mu       sync.RWMutex
	external map[string]ExternalMac
}

// NewSignatureManager creates a manager that knows the native kinds only.
func NewSignatureManager() *SignatureManager {
	return &SignatureManager{external: make(map[string]ExternalMac)}
}

// Register makes an external MAC available under name.
func (m *SignatureManager) Register(name string, mac ExternalMac) error {
	name = strings.TrimSpace(name)
	if name == "" || mac == nil {
		return cryptoErrorf("cannot register an unnamed or nil MAC")
	}
	if alg, _ := ParseMac(name); alg.Kind != MacExternal {
		return cryptoErrorf("%q is a native MAC and cannot be replaced", name)
	}
	if mac.Size() <= 0 {
		return cryptoErrorf("MAC %q declares length %d", name, mac.Size())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.external[name] = mac
	return nil
}

// New returns the engine for alg, keyed with key. Keyless checksums ignore key.
func (m *SignatureManager) New(alg MacAlgorithm, key []byte) (hash.Hash, error) {
	switch alg.Kind {
	case MacDES, MacTripleDES:
		return newDESMAC(key)
	case MacCRC16:
		return newCRC16(), nil
	case MacCRC32:
		return newCRC32(), nil
	case MacXOR4:
		return newXOR(4), nil
	case MacXOR8:
		return newXOR(8), nil
	case MacAESCMAC32:
		return newAESCMAC(key, 4)
	case MacAESCMAC64:
		return newAESCMAC(key, 8)
	case MacExternal:
		ext, err := m.lookup(alg.Name)
		if err != nil {
			return nil, err
		}
		h, err := ext.New(key)
		if err != nil {
			return nil, wrapCrypto(err, "%s", alg)
		}
		return h, nil
	default:
		return nil, cryptoErrorf("unknown signature algorithm %s", alg)
	}
}

// Sign computes the signature of data.
func (m *SignatureManager) Sign(alg MacAlgorithm, key, data []byte) ([]byte, error) {
	want, err := m.SignLength(alg)
	if err != nil {
		return nil, err
	}

	h, err := m.New(alg, key)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	sig := h.Sum(nil)

	if len(sig) != want {
		return nil, cryptoErrorf("%s produced %d bytes, declared %d", alg, len(sig), want)
	}
	return sig, nil
}

// Verify recomputes the signature of data and compares it in constant time.
func (m *SignatureManager) Verify(alg MacAlgorithm, key, data, signature []byte) (bool, error) {
	expected, err := m.Sign(alg, key, data)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, signature), nil
}

// SignLength returns the declared signature length of alg.
func (m *SignatureManager) SignLength(alg MacAlgorithm) (int, error) {
	if alg.Kind == MacExternal {
		ext, err := m.lookup(alg.Name)
		if err != nil {
			return 0, err
		}
		return ext.Size(), nil
	}

	n, ok := macLengths[alg.Kind]
	if !ok {
		return 0, cryptoErrorf("unknown signature algorithm %s", alg)
	}
	return n, nil
}

// KeyRequired is false for the redundancy checks, which take no key.
func (m *SignatureManager) KeyRequired(alg MacAlgorithm) bool {
	switch alg.Kind {
	case MacCRC16, MacCRC32, MacXOR4, MacXOR8:
		return false
	}
	return true
}

func (m *SignatureManager) lookup(name string) (ExternalMac, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mac, ok := m.external[name]
	if !ok {
		return nil, cryptoErrorf("no signature algorithm registered as %q", name)
	}
	return mac, nil
}
