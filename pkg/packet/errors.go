package packet

import (
	"errors"

	"github.com/gregLibert/gsm0348/pkg/coding"
	"github.com/gregLibert/gsm0348/pkg/profile"
	"github.com/gregLibert/gsm0348/pkg/security"
)

// Every error returned by a Builder matches exactly one of these with errors.Is.
var (
	// ErrConfiguration: invalid profile, builder not configured, missing key or counter,
	// or an operation the bearer does not support.
	ErrConfiguration = profile.ErrConfiguration
	// ErrCoding: malformed packet or field.
	ErrCoding = coding.ErrCoding
	// ErrCrypto: a cipher or MAC engine failed (bad key length, unaligned data...).
	ErrCrypto = security.ErrCrypto
	// ErrVerification: the packet was well formed but its RC/CC/DS does not match.
	ErrVerification = errors.New("verification error")
)
