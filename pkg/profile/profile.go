// Package profile describes the security configuration shared by both ends of an
// OTA link: which bearer is used, how command and response packets are protected,
// which keysets and algorithms apply and which application (TAR) is addressed.
package profile

import (
	"fmt"

	"github.com/gregLibert/gsm0348/pkg/coding"
	"github.com/gregLibert/gsm0348/pkg/security"
	"go.uber.org/multierr"
)

// HeaderSize is the size of the encoded SPI, KIC, KID and TAR.
const HeaderSize = 7

// SPI groups the two Security Parameter Indicator bytes.
type SPI struct {
	Command  coding.CommandSPI
	Response coding.ResponseSPI
}

// Profile is a plain value: copying it never shares state with the original.
type Profile struct {
	Transport Transport
	SPI       SPI
	KIC       coding.KIC
	KID       coding.KID
	TAR       [3]byte

	// CipherName and SignatureName name the algorithms when the KIC or KID
	// say "known by both entities" or "proprietary". SignatureName also picks
	// between AES_CMAC_32 and AES_CMAC_64 for an AES KID.
	CipherName    string
	SignatureName string
}

// Ciphered is true when either packet direction is ciphered.
func (p Profile) Ciphered() bool {
	return p.SPI.Command.Ciphered || p.SPI.Response.Ciphered
}

// Certified is true when either packet direction carries a RC, CC or DS.
func (p Profile) Certified() bool {
	return p.SPI.Command.CertificationMode != coding.NoSecurity ||
		p.SPI.Response.CertificationMode != coding.NoSecurity
}

// KIDContext is the certification mode the KID byte is read under: the command
// one when the command is certified, the PoR one otherwise.
func (p Profile) KIDContext() coding.CertificationMode {
	if p.SPI.Command.CertificationMode != coding.NoSecurity {
		return p.SPI.Command.CertificationMode
	}
	return p.SPI.Response.CertificationMode
}

// Validate reports every inconsistency of the profile at once.
// The returned error matches ErrConfiguration.
func (p Profile) Validate() error {
	var errs error
	add := func(format string, args ...interface{}) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrConfiguration}, args...)...))
	}

	if _, ok := transportNames[p.Transport]; !ok {
		add("transport is not set")
	}

	cmd, rsp := p.SPI.Command, p.SPI.Response
	if cmd.CertificationMode == coding.DS {
		add("digital signature is not supported for command packets")
	}
	if rsp.CertificationMode == coding.DS {
		add("digital signature is not supported for response packets")
	}
	if _, err := cmd.Encode(); err != nil {
		add("command SPI: %v", err)
	}
	if _, err := rsp.Encode(); err != nil {
		add("response SPI: %v", err)
	}
	if _, err := p.KIC.Encode(); err != nil {
		add("KIC: %v", err)
	}
	if _, err := p.KID.Encode(); err != nil {
		add("KID: %v", err)
	}

	if p.Ciphered() {
		if _, err := p.ResolveCipher(); err != nil {
			add("%v", err)
		}
	}

	if p.Certified() {
		for _, mode := range []coding.CertificationMode{cmd.CertificationMode, rsp.CertificationMode} {
			if mode == coding.NoSecurity || mode == coding.DS {
				continue
			}
			if err := p.KID.ValidFor(mode); err != nil {
				add("%v", err)
			}
		}
		if _, err := p.ResolveSignature(); err != nil {
			add("%v", err)
		}
	} else if p.KID.Algorithm != coding.KIDKnownByBoth || p.KID.Mode != coding.MacUnspecified {
		add("KID %s/%s is set but no packet is certified", p.KID.Algorithm, p.KID.Mode)
	}

	return errs
}

// ResolveCipher derives the cipher from the KIC, falling back to CipherName
// for known-by-both and proprietary algorithms.
func (p Profile) ResolveCipher() (security.CipherAlgorithm, error) {
	switch p.KIC.Algorithm {
	case coding.KICKnownByBoth, coding.KICProprietary:
		if p.CipherName == "" {
			return security.CipherAlgorithm{}, fmt.Errorf("%w: KIC algorithm %s needs a cipher name", ErrConfiguration, p.KIC.Algorithm)
		}
		alg, err := security.ParseCipher(p.CipherName)
		if err != nil {
			return security.CipherAlgorithm{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		return alg, nil
	case coding.KICDES:
		switch p.KIC.Mode {
		case coding.CipherDESCBC:
			return security.Cipher(security.CipherDESCBC), nil
		case coding.CipherDESECB:
			return security.Cipher(security.CipherDESECB), nil
		case coding.CipherTripleDES2Key, coding.CipherTripleDES3Key:
			return security.Cipher(security.CipherTripleDESCBC), nil
		}
	case coding.KICAES:
		if p.KIC.Mode == coding.CipherAESCBC {
			return security.Cipher(security.CipherAESCBC), nil
		}
	}
	return security.CipherAlgorithm{}, fmt.Errorf("%w: no cipher for KIC %s/%s", ErrConfiguration, p.KIC.Algorithm, p.KIC.Mode)
}

// ResolveSignature derives the integrity algorithm from the KID, falling back
// to SignatureName for known-by-both and proprietary algorithms.
func (p Profile) ResolveSignature() (security.MacAlgorithm, error) {
	switch p.KID.Algorithm {
	case coding.KIDKnownByBoth, coding.KIDProprietary:
		if p.SignatureName == "" {
			return security.MacAlgorithm{}, fmt.Errorf("%w: KID algorithm %s needs a signature name", ErrConfiguration, p.KID.Algorithm)
		}
		alg, err := security.ParseMac(p.SignatureName)
		if err != nil {
			return security.MacAlgorithm{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		return alg, nil
	case coding.KIDDES:
		switch p.KID.Mode {
		case coding.MacDESCBC:
			return security.Mac(security.MacDES), nil
		case coding.MacTripleDES2Key, coding.MacTripleDES3Key:
			return security.Mac(security.MacTripleDES), nil
		}
	case coding.KIDAES:
		if p.KID.Mode != coding.MacAESCMAC {
			break
		}
		if p.SignatureName == "" {
			return security.Mac(security.MacAESCMAC64), nil
		}
		alg, err := security.ParseMac(p.SignatureName)
		if err == nil && (alg.Kind == security.MacAESCMAC32 || alg.Kind == security.MacAESCMAC64) {
			return alg, nil
		}
		return security.MacAlgorithm{}, fmt.Errorf("%w: AES CMAC signature must be %s or %s, got %q",
			ErrConfiguration, security.AESCMAC32, security.AESCMAC64, p.SignatureName)
	case coding.KIDCRC:
		switch p.KID.Mode {
		case coding.MacCRC16:
			return security.Mac(security.MacCRC16), nil
		case coding.MacCRC32:
			return security.Mac(security.MacCRC32), nil
		}
	}
	return security.MacAlgorithm{}, fmt.Errorf("%w: no signature algorithm for KID %s/%s", ErrConfiguration, p.KID.Algorithm, p.KID.Mode)
}

// Header encodes SPI, KIC, KID and TAR as the 7 bytes found in a command header.
func (p Profile) Header() ([]byte, error) {
	cmd, err := p.SPI.Command.Encode()
	if err != nil {
		return nil, err
	}
	rsp, err := p.SPI.Response.Encode()
	if err != nil {
		return nil, err
	}
	kic, err := p.KIC.Encode()
	if err != nil {
		return nil, err
	}
	kid, err := p.KID.Encode()
	if err != nil {
		return nil, err
	}
	return []byte{cmd, rsp, kic, kid, p.TAR[0], p.TAR[1], p.TAR[2]}, nil
}

// ParseHeader decodes the 7 bytes SPI, KIC, KID and TAR into a profile for transport t.
// Algorithm names are left empty. Decoding errors match coding.ErrCoding.
func ParseHeader(b []byte, t Transport) (Profile, error) {
	if len(b) != HeaderSize {
		return Profile{}, fmt.Errorf("%w: header must be %d bytes, got %d", coding.ErrCoding, HeaderSize, len(b))
	}

	var (
		p   = Profile{Transport: t}
		err error
	)
	if p.SPI.Command, err = coding.DecodeCommandSPI(b[0]); err != nil {
		return Profile{}, err
	}
	if p.SPI.Response, err = coding.DecodeResponseSPI(b[1]); err != nil {
		return Profile{}, err
	}
	if p.KIC, err = coding.DecodeKIC(b[2]); err != nil {
		return Profile{}, err
	}
	if p.KID, err = coding.DecodeKID(b[3], p.KIDContext()); err != nil {
		return Profile{}, err
	}
	copy(p.TAR[:], b[4:7])
	return p, nil
}
