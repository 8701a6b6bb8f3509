package iso7816

import "fmt"

// Dynamic status words met on SIM and UICC cards:
//
//	'61XX' Response available, XX bytes to fetch with GET RESPONSE (UICC).
//	'9FXX' Same as 61XX on a GSM SIM (class A0).
//	'9EXX' SIM data download error, XX bytes of error data to fetch with GET RESPONSE.
//	'91XX' Normal ending, a proactive command of XX bytes is pending (FETCH).
//	'6CXX' Wrong length, XX is the correct Le.

// StatusWord is the two-byte status (SW1-SW2) returned by the card.
type StatusWord uint16

// NewStatusWord creates a StatusWord from two separate bytes.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(uint16(sw1)<<8 | uint16(sw2))
}

// SW1 returns the high byte.
func (sw StatusWord) SW1() byte {
	return byte(sw >> 8)
}

// SW2 returns the low byte.
func (sw StatusWord) SW2() byte {
	return byte(sw)
}

// Status words with a fixed value.
const (
	SW_NO_ERROR                 StatusWord = 0x9000
	SW_TOOLKIT_BUSY             StatusWord = 0x9300
	SW_WRONG_LENGTH             StatusWord = 0x6700
	SW_SECURITY_STATUS          StatusWord = 0x6982
	SW_FILE_NOT_FOUND           StatusWord = 0x6A82
	SW_INCORRECT_P1P2           StatusWord = 0x6A86
	SW_INS_NOT_SUPPORTED        StatusWord = 0x6D00
	SW_CLA_NOT_SUPPORTED        StatusWord = 0x6E00
	SW_UNKNOWN                  StatusWord = 0x6F00
	SW_MEMORY_PROBLEM           StatusWord = 0x9240
	SW_NO_EF_SELECTED           StatusWord = 0x9400
	SW_FILE_ID_NOT_FOUND        StatusWord = 0x9404
	SW_ACCESS_CONDITION_NOT_MET StatusWord = 0x9804
)

var swNames = map[StatusWord]string{
	SW_NO_ERROR:                 "Normal processing",
	SW_TOOLKIT_BUSY:             "SIM Application Toolkit is busy",
	SW_WRONG_LENGTH:             "Wrong length",
	SW_SECURITY_STATUS:          "Security status not satisfied",
	SW_FILE_NOT_FOUND:           "File or application not found",
	SW_INCORRECT_P1P2:           "Incorrect parameters P1-P2",
	SW_INS_NOT_SUPPORTED:        "Instruction code not supported or invalid",
	SW_CLA_NOT_SUPPORTED:        "Class not supported",
	SW_UNKNOWN:                  "Technical problem, no precise diagnosis",
	SW_MEMORY_PROBLEM:           "Memory problem",
	SW_NO_EF_SELECTED:           "No EF selected",
	SW_FILE_ID_NOT_FOUND:        "File ID not found",
	SW_ACCESS_CONDITION_NOT_MET: "Access condition not fulfilled",
}

func (sw StatusWord) String() string {
	if name, ok := swNames[sw]; ok {
		return name
	}
	return fmt.Sprintf("StatusWord(0x%04X)", uint16(sw))
}

// ResponseAvailable reports the number of bytes waiting for GET RESPONSE
// after a 61XX, 9FXX or 9EXX status.
func (sw StatusWord) ResponseAvailable() (int, bool) {
	switch sw.SW1() {
	case 0x61, 0x9F, 0x9E:
		n := int(sw.SW2())
		if n == 0 {
			n = 256
		}
		return n, true
	}
	return 0, false
}

// IsDownloadError reports a 9EXX status: the card rejected a data download
// and holds error data, usually a PoR.
func (sw StatusWord) IsDownloadError() bool {
	return sw.SW1() == 0x9E
}

// ProactivePending reports the length of a pending proactive command (91XX).
func (sw StatusWord) ProactivePending() (int, bool) {
	if sw.SW1() != 0x91 {
		return 0, false
	}
	return int(sw.SW2()), true
}

// IsSuccess is true for 9000, 91XX and the response-available statuses 61XX and 9FXX.
func (sw StatusWord) IsSuccess() bool {
	switch sw.SW1() {
	case 0x61, 0x91, 0x9F:
		return true
	}
	return sw == SW_NO_ERROR
}

// IsError is true for the checking and execution errors (64XX to 6FXX, 92XX to 98XX).
func (sw StatusWord) IsError() bool {
	sw1 := sw.SW1()
	return (sw1 >= 0x64 && sw1 <= 0x6F) || (sw1 >= 0x92 && sw1 <= 0x98)
}

// Verbose returns a human-readable description of the status word.
func (sw StatusWord) Verbose() string {
	sw2 := sw.SW2()

	switch sw.SW1() {
	case 0x61, 0x9F:
		return fmt.Sprintf("[%04X] Process completed, %d bytes available", uint16(sw), sw2)
	case 0x9E:
		return fmt.Sprintf("[%04X] Data download error, %d bytes of error data", uint16(sw), sw2)
	case 0x91:
		return fmt.Sprintf("[%04X] Proactive command pending, %d bytes", uint16(sw), sw2)
	case 0x6C:
		return fmt.Sprintf("[%04X] Wrong length, correct Le is %d", uint16(sw), sw2)
	}

	if name, ok := swNames[sw]; ok {
		return fmt.Sprintf("[%04X] %s", uint16(sw), name)
	}
	return fmt.Sprintf("[%04X] %s", uint16(sw), sw.category())
}

func (sw StatusWord) category() string {
	switch sw.SW1() {
	case 0x62, 0x63:
		return "Warning"
	case 0x64, 0x65, 0x66:
		return "Execution error"
	case 0x67, 0x68, 0x69, 0x6A, 0x6B, 0x6D, 0x6E, 0x6F:
		return "Checking error"
	case 0x92, 0x94, 0x98:
		return "GSM error"
	default:
		return "Unknown status"
	}
}
