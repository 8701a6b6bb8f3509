package profile

import (
	"fmt"
	"strings"
)

// Transport is the bearer that carries the secured packets.
// The zero value means "not set" and is rejected by Validate.
type Transport int

const (
	TransportUnset Transport = iota
	SMSPP
	SMSCB
	CATTP
	TCPIP
	USSD
)

var transportNames = map[Transport]string{
	SMSPP: "SMS_PP",
	SMSCB: "SMS_CB",
	CATTP: "CAT_TP",
	TCPIP: "TCP_IP",
	USSD:  "USSD",
}

func (t Transport) String() string {
	if name, ok := transportNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Transport(%d)", int(t))
}

// IsSMS is true for the two SMS bearers, which frame packets with a 2-byte length.
func (t Transport) IsSMS() bool {
	return t == SMSPP || t == SMSCB
}

// ParseTransport accepts the canonical names (SMS_PP, SMS_CB, CAT_TP, TCP_IP, USSD),
// case-insensitive, with '-' accepted in place of '_'.
func ParseTransport(s string) (Transport, error) {
	norm := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
	for t, name := range transportNames {
		if name == norm {
			return t, nil
		}
	}
	return TransportUnset, fmt.Errorf("%w: unknown transport %q", ErrConfiguration, s)
}
