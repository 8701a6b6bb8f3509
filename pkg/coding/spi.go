package coding

import (
	"fmt"

	"github.com/gregLibert/gsm0348/pkg/bits"
)

// Security Parameter Indicator (SPI) according to ETSI TS 102.225 section 5.1.1.
//
// The SPI is two bytes. The first one qualifies the command packet, the second one
// tells the card how the Proof of Receipt (response packet) must be built.
//
// First byte (command):
// Bits 2-1: Certification mode (00 none, 01 RC, 10 CC, 11 DS).
// Bit 3:    Ciphering (0 no, 1 yes).
// Bits 5-4: Counter mode.
//   - 00: No counter available.
//   - 01: Counter available, no replay or sequence checking.
//   - 10: Process if counter is higher than the value in the receiving entity.
//   - 11: Process if counter is one higher than the value in the receiving entity.
// Bits 8-6: Reserved, set to zero.
//
// Second byte (response):
// Bits 2-1: PoR mode (00 none, 01 always, 10 on error, 11 reserved).
// Bits 4-3: PoR certification mode (same values as the command).
// Bit 5:    PoR ciphered.
// Bit 6:    PoR sent using SMS-DELIVER-REPORT (0) or SMS-SUBMIT (1).
// Bits 8-7: Reserved, set to zero.

// CertificationMode is the integrity level applied to a packet.
type CertificationMode byte

const (
	// NoSecurity means no redundancy check, cryptographic checksum or signature.
	NoSecurity CertificationMode = 0
	// RC is a redundancy check (CRC, XOR).
	RC CertificationMode = 1
	// CC is a cryptographic checksum (MAC).
	CC CertificationMode = 2
	// DS is a digital signature. It is decodable but no packet can use it.
	DS CertificationMode = 3
)

func (m CertificationMode) String() string {
	switch m {
	case NoSecurity:
		return "No security"
	case RC:
		return "Redundancy Check"
	case CC:
		return "Cryptographic Checksum"
	case DS:
		return "Digital Signature"
	default:
		return fmt.Sprintf("CertificationMode(%d)", byte(m))
	}
}

// CounterMode tells the card how to check the counter of a command.
type CounterMode byte

const (
	NoCounter                   CounterMode = 0
	CounterNoReplay             CounterMode = 1
	CounterReplayCheck          CounterMode = 2
	CounterReplayCheckIncrement CounterMode = 3
)

func (m CounterMode) String() string {
	switch m {
	case NoCounter:
		return "No counter"
	case CounterNoReplay:
		return "Counter available, no replay check"
	case CounterReplayCheck:
		return "Counter must be higher"
	case CounterReplayCheckIncrement:
		return "Counter must be one higher"
	default:
		return fmt.Sprintf("CounterMode(%d)", byte(m))
	}
}

// PoRMode tells the card when to answer.
type PoRMode byte

const (
	NoReply      PoRMode = 0
	ReplyAlways  PoRMode = 1
	ReplyOnError PoRMode = 2
	PoRReserved  PoRMode = 3
)

func (m PoRMode) String() string {
	switch m {
	case NoReply:
		return "No PoR"
	case ReplyAlways:
		return "PoR required"
	case ReplyOnError:
		return "PoR on error only"
	case PoRReserved:
		return "Reserved"
	default:
		return fmt.Sprintf("PoRMode(%d)", byte(m))
	}
}

// PoRProtocol selects the SMS used to carry the response.
type PoRProtocol byte

const (
	DeliverReport PoRProtocol = 0
	Submit        PoRProtocol = 1
)

func (p PoRProtocol) String() string {
	if p == Submit {
		return "SMS-SUBMIT"
	}
	return "SMS-DELIVER-REPORT"
}

// CommandSPI is the first SPI byte.
type CommandSPI struct {
	CertificationMode CertificationMode
	Ciphered          bool
	CounterMode       CounterMode
}

// DecodeCommandSPI parses the first SPI byte. Reserved bits must be zero.
func DecodeCommandSPI(b byte) (CommandSPI, error) {
	if bits.GetRange(b, 8, 6) != 0 {
		return CommandSPI{}, fieldErr("command SPI", b, "reserved bits 8-6 are set")
	}

	return CommandSPI{
		CertificationMode: CertificationMode(bits.GetRange(b, 2, 1)),
		Ciphered:          bits.IsSet(b, 3),
		CounterMode:       CounterMode(bits.GetRange(b, 5, 4)),
	}, nil
}

// Encode converts the CommandSPI back to its byte representation.
func (s CommandSPI) Encode() (byte, error) {
	if !bits.Fits(byte(s.CertificationMode), 2, 1) {
		return 0, fieldErr("command SPI", byte(s.CertificationMode), "unknown certification mode")
	}
	if !bits.Fits(byte(s.CounterMode), 2, 1) {
		return 0, fieldErr("command SPI", byte(s.CounterMode), "unknown counter mode")
	}

	var b byte
	b = bits.SetRange(b, 2, 1, byte(s.CertificationMode))
	b = bits.SetIf(b, 3, s.Ciphered)
	b = bits.SetRange(b, 5, 4, byte(s.CounterMode))
	return b, nil
}

// Verbose returns a human-readable description of the command SPI.
func (s CommandSPI) Verbose() string {
	return fmt.Sprintf("Certification: %s\nCiphering: %t\nCounter: %s",
		s.CertificationMode, s.Ciphered, s.CounterMode)
}

// ResponseSPI is the second SPI byte.
type ResponseSPI struct {
	PoRMode           PoRMode
	CertificationMode CertificationMode
	Ciphered          bool
	Protocol          PoRProtocol
}

// DecodeResponseSPI parses the second SPI byte. Reserved bits must be zero.
func DecodeResponseSPI(b byte) (ResponseSPI, error) {
	if bits.GetRange(b, 8, 7) != 0 {
		return ResponseSPI{}, fieldErr("response SPI", b, "reserved bits 8-7 are set")
	}

	return ResponseSPI{
		PoRMode:           PoRMode(bits.GetRange(b, 2, 1)),
		CertificationMode: CertificationMode(bits.GetRange(b, 4, 3)),
		Ciphered:          bits.IsSet(b, 5),
		Protocol:          PoRProtocol(bits.GetRange(b, 6, 6)),
	}, nil
}

// Encode converts the ResponseSPI back to its byte representation.
func (s ResponseSPI) Encode() (byte, error) {
	if !bits.Fits(byte(s.PoRMode), 2, 1) {
		return 0, fieldErr("response SPI", byte(s.PoRMode), "unknown PoR mode")
	}
	if !bits.Fits(byte(s.CertificationMode), 2, 1) {
		return 0, fieldErr("response SPI", byte(s.CertificationMode), "unknown certification mode")
	}
	if !bits.Fits(byte(s.Protocol), 1, 1) {
		return 0, fieldErr("response SPI", byte(s.Protocol), "unknown PoR protocol")
	}

	var b byte
	b = bits.SetRange(b, 2, 1, byte(s.PoRMode))
	b = bits.SetRange(b, 4, 3, byte(s.CertificationMode))
	b = bits.SetIf(b, 5, s.Ciphered)
	b = bits.SetRange(b, 6, 6, byte(s.Protocol))
	return b, nil
}

// Verbose returns a human-readable description of the response SPI.
func (s ResponseSPI) Verbose() string {
	return fmt.Sprintf("PoR: %s\nPoR Certification: %s\nPoR Ciphering: %t\nPoR Protocol: %s",
		s.PoRMode, s.CertificationMode, s.Ciphered, s.Protocol)
}
