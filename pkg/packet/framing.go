package packet

import (
	"fmt"

	"github.com/gregLibert/gsm0348/pkg/coding"
	"github.com/gregLibert/gsm0348/pkg/profile"
)

// Packet identifiers placed in front of the length on the non-SMS bearers.
const (
	cpiCATTP byte = 0x01
	rpiCATTP byte = 0x02
	cpiUSSD  byte = 0x03
	rpiUSSD  byte = 0x04
)

// smsResponseUDH is UDHL, IEIa and IEIDLa of an SMS carrying a response packet.
// They are not part of the packet but are covered by its RC/CC/DS.
var smsResponseUDH = []byte{0x02, 0x71, 0x00}

// framing is how a bearer prefixes a packet: an optional identifier followed by
// the packet length, on 2 fixed bytes for SMS and BER encoded otherwise.
type framing struct {
	sms bool
	id  byte
	// signPrefix replaces the identifier when computing the RC/CC/DS.
	signPrefix []byte
}

func commandFraming(t profile.Transport) (framing, error) {
	switch t {
	case profile.SMSPP, profile.SMSCB:
		return framing{sms: true}, nil
	case profile.CATTP, profile.TCPIP:
		return framing{id: cpiCATTP}, nil
	case profile.USSD:
		return framing{id: cpiUSSD}, nil
	}
	return framing{}, fmt.Errorf("%w: transport %s is not set", ErrConfiguration, t)
}

func responseFraming(t profile.Transport) (framing, error) {
	switch t {
	case profile.SMSPP:
		return framing{sms: true, signPrefix: smsResponseUDH}, nil
	case profile.SMSCB:
		return framing{}, fmt.Errorf("%w: no response packet is defined for %s", ErrConfiguration, t)
	case profile.CATTP, profile.TCPIP:
		return framing{id: rpiCATTP}, nil
	case profile.USSD:
		return framing{id: rpiUSSD}, nil
	}
	return framing{}, fmt.Errorf("%w: transport %s is not set", ErrConfiguration, t)
}

// encode returns the identifier and length that go in front of a packet of n bytes.
func (f framing) encode(n int) ([]byte, error) {
	if f.sms {
		return coding.EncodeLength2(n)
	}
	l, err := coding.EncodeLength(n)
	if err != nil {
		return nil, err
	}
	return append([]byte{f.id}, l...), nil
}

// split checks the identifier and length of raw and returns the prefix and the packet.
// The declared length must match the bytes that follow exactly.
func (f framing) split(raw []byte) (prefix, body []byte, err error) {
	var n, size int

	if f.sms {
		if n, err = coding.DecodeLength2(raw); err != nil {
			return nil, nil, err
		}
		size = 2
	} else {
		if len(raw) == 0 {
			return nil, nil, fmt.Errorf("%w: empty packet", ErrCoding)
		}
		if raw[0] != f.id {
			return nil, nil, fmt.Errorf("%w: packet identifier %02X, expected %02X", ErrCoding, raw[0], f.id)
		}
		if n, size, err = coding.DecodeLength(raw[1:]); err != nil {
			return nil, nil, err
		}
		size++
	}

	if rest := len(raw) - size; rest != n {
		return nil, nil, fmt.Errorf("%w: declared length %d, found %d bytes", ErrCoding, n, rest)
	}
	return raw[:size], raw[size:], nil
}

// signingPrefix is what precedes the header in the data covered by the RC/CC/DS.
func (f framing) signingPrefix(prefix []byte) []byte {
	if f.signPrefix == nil {
		return prefix
	}
	out := make([]byte, 0, len(f.signPrefix)+len(prefix))
	out = append(out, f.signPrefix...)
	return append(out, prefix...)
}

// paddingFor is the number of zero bytes that align n on the cipher block size.
func paddingFor(n, blockSize int) int {
	if r := n % blockSize; r != 0 {
		return blockSize - r
	}
	return 0
}
