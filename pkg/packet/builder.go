// Package packet builds and recovers secured command and response packets
// (ETSI TS 102.225 / 3GPP TS 31.115) for a given security profile.
package packet

import (
	"fmt"
	"sync"

	"github.com/gregLibert/gsm0348/pkg/coding"
	"github.com/gregLibert/gsm0348/pkg/profile"
	"github.com/gregLibert/gsm0348/pkg/security"
	"go.uber.org/zap"
)

// Sizes of the fixed header fields.
const (
	counterSize        = 5
	paddingCounterSize = 1
	statusSize         = 1
	headerFieldsSize   = profile.HeaderSize // SPI(2) KIC KID TAR(3)

	// commandHeaderSize is the CHL of a command without RC/CC/DS.
	commandHeaderSize = headerFieldsSize + counterSize + paddingCounterSize
	// responseHeaderSize is the RHL of a response without RC/CC/DS.
	responseHeaderSize = 3 + counterSize + paddingCounterSize + statusSize
)

// Option customizes a Builder.
type Option func(*Builder)

// WithRegistry makes the builder use r to find ciphers and MACs, including
// externally registered ones. By default every builder owns a fresh registry.
func WithRegistry(r *security.Registry) Option {
	return func(b *Builder) {
		if r != nil {
			b.registry = r
		}
	}
}

// WithLogger sets the logger used for debug traces. Key material is never logged.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// Builder turns application data into secured packets and back.
// It is safe for concurrent use; Configure replaces the profile atomically.
type Builder struct {
	registry *security.Registry
	log      *zap.Logger

	mu  sync.RWMutex
	cfg *settings
}

// settings is everything derived from a profile at configuration time.
type settings struct {
	profile   profile.Profile
	cipher    security.CipherAlgorithm
	blockSize int
	mac       security.MacAlgorithm
	macSize   int
}

// NewBuilder returns an unconfigured builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		registry: security.NewRegistry(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Configure validates p, derives its algorithms and keeps a copy of it.
// On failure the previous configuration, if any, is left untouched.
func (b *Builder) Configure(p profile.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s := &settings{profile: p}

	if p.Ciphered() {
		alg, err := p.ResolveCipher()
		if err != nil {
			return err
		}
		bs, err := b.registry.Ciphers.BlockSize(alg)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		s.cipher, s.blockSize = alg, bs
	}

	if p.Certified() {
		alg, err := p.ResolveSignature()
		if err != nil {
			return err
		}
		n, err := b.registry.Signatures.SignLength(alg)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		s.mac, s.macSize = alg, n
	}

	b.mu.Lock()
	b.cfg = s
	b.mu.Unlock()

	b.log.Debug("builder configured",
		zap.Stringer("transport", p.Transport),
		zap.Stringer("cipher", s.cipher),
		zap.Int("block_size", s.blockSize),
		zap.Stringer("signature", s.mac),
		zap.Int("signature_length", s.macSize),
		zap.Stringer("counter", p.SPI.Command.CounterMode),
	)
	return nil
}

// IsConfigured reports whether Configure has succeeded at least once.
func (b *Builder) IsConfigured() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cfg != nil
}

// Profile returns a copy of the active profile.
func (b *Builder) Profile() (profile.Profile, error) {
	s, err := b.settings()
	if err != nil {
		return profile.Profile{}, err
	}
	return s.profile, nil
}

func (b *Builder) settings() (*settings, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.cfg == nil {
		return nil, fmt.Errorf("%w: builder is not configured", ErrConfiguration)
	}
	return b.cfg, nil
}

// counterField returns the 5 counter bytes to put in a packet.
// Without a counter mode the field is zero whatever the caller passed.
func counterField(mode coding.CounterMode, counter []byte) ([counterSize]byte, error) {
	var c [counterSize]byte

	if counter != nil && len(counter) != counterSize {
		return c, fmt.Errorf("%w: counter must be %d bytes, got %d", ErrConfiguration, counterSize, len(counter))
	}
	if mode == coding.NoCounter {
		return c, nil
	}
	if counter == nil {
		return c, fmt.Errorf("%w: counter mode %q requires a counter", ErrConfiguration, mode)
	}
	copy(c[:], counter)
	return c, nil
}

// requireKey fails when a key is needed and missing.
func requireKey(needed bool, key []byte, what string) error {
	if needed && len(key) == 0 {
		return fmt.Errorf("%w: %s key is required", ErrConfiguration, what)
	}
	return nil
}

func (b *Builder) sign(alg security.MacAlgorithm, key, data []byte) ([]byte, error) {
	return b.registry.Signatures.Sign(alg, key, data)
}

func (b *Builder) verify(alg security.MacAlgorithm, key, data, sig []byte) error {
	ok, err := b.registry.Signatures.Verify(alg, key, data, sig)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s does not match", ErrVerification, alg)
	}
	return nil
}
