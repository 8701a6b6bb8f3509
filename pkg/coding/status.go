package coding

import "fmt"

// ResponseStatus is the status code byte of a response packet (ETSI TS 102.225 section 5.2.2).
type ResponseStatus byte

const (
	PoROK                            ResponseStatus = 0x00
	RCCCDSFailed                     ResponseStatus = 0x01
	CounterLow                       ResponseStatus = 0x02
	CounterHigh                      ResponseStatus = 0x03
	CounterBlocked                   ResponseStatus = 0x04
	CipheringError                   ResponseStatus = 0x05
	UnidentifiedSecurityError        ResponseStatus = 0x06
	InsufficientMemory               ResponseStatus = 0x07
	MoreTime                         ResponseStatus = 0x08
	TARUnknown                       ResponseStatus = 0x09
	InsufficientSecurityLevel        ResponseStatus = 0x0A
	ResponseViaSMSSubmit             ResponseStatus = 0x0B
	ResponseViaProcessUnstructuredSS ResponseStatus = 0x0C
)

var statusNames = map[ResponseStatus]string{
	PoROK:                            "PoR OK",
	RCCCDSFailed:                     "RC/CC/DS failed",
	CounterLow:                       "Counter low",
	CounterHigh:                      "Counter high",
	CounterBlocked:                   "Counter blocked",
	CipheringError:                   "Ciphering error",
	UnidentifiedSecurityError:        "Unidentified security error",
	InsufficientMemory:               "Insufficient memory to process incoming message",
	MoreTime:                         "More time needed to process the command packet",
	TARUnknown:                       "TAR unknown",
	InsufficientSecurityLevel:        "Insufficient security level",
	ResponseViaSMSSubmit:             "Actual response data to be sent using SMS-SUBMIT",
	ResponseViaProcessUnstructuredSS: "Actual response data to be sent using a Process Unstructured SS request",
}

// DecodeResponseStatus parses a status code byte. Values above 0x0C are rejected.
func DecodeResponseStatus(b byte) (ResponseStatus, error) {
	s := ResponseStatus(b)
	if _, ok := statusNames[s]; !ok {
		return 0, fieldErr("response status", b, "unknown status code")
	}
	return s, nil
}

// Encode returns the status byte, rejecting values outside the defined range.
func (s ResponseStatus) Encode() (byte, error) {
	if _, ok := statusNames[s]; !ok {
		return 0, fieldErr("response status", byte(s), "unknown status code")
	}
	return byte(s), nil
}

func (s ResponseStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ResponseStatus(%d)", byte(s))
}

// IsSuccess is true only for PoR OK.
func (s ResponseStatus) IsSuccess() bool {
	return s == PoROK
}

// Verbose returns the status with its raw code, e.g. "[02] Counter low".
func (s ResponseStatus) Verbose() string {
	return fmt.Sprintf("[%02X] %s", byte(s), s)
}
