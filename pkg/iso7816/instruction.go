package iso7816

import "fmt"

// InsCode is the instruction byte.
type InsCode byte

// Instructions used by the OTA tooling (ISO/IEC 7816-4, ETSI TS 102 221).
const (
	INS_SELECT            InsCode = 0xA4
	INS_READ_BINARY       InsCode = 0xB0
	INS_GET_RESPONSE      InsCode = 0xC0
	INS_ENVELOPE          InsCode = 0xC2
	INS_FETCH             InsCode = 0x12
	INS_TERMINAL_RESPONSE InsCode = 0x14
	INS_STATUS            InsCode = 0xF2
)

var insNames = map[InsCode]string{
	INS_SELECT:            "SELECT",
	INS_READ_BINARY:       "READ BINARY",
	INS_GET_RESPONSE:      "GET RESPONSE",
	INS_ENVELOPE:          "ENVELOPE",
	INS_FETCH:             "FETCH",
	INS_TERMINAL_RESPONSE: "TERMINAL RESPONSE",
	INS_STATUS:            "STATUS",
}

func (c InsCode) String() string {
	if name, ok := insNames[c]; ok {
		return name
	}
	return fmt.Sprintf("InsCode(0x%02X)", byte(c))
}

// Instruction is a validated instruction byte.
type Instruction struct {
	Code InsCode
}

// NewInstruction rejects the 6X and 9X values, which ISO/IEC 7816-3 reserves
// for procedure bytes.
func NewInstruction(ins InsCode) (Instruction, error) {
	switch byte(ins) & 0xF0 {
	case 0x60, 0x90:
		return Instruction{}, fmt.Errorf("invalid INS 0x%02X: 6X and 9X are reserved", byte(ins))
	}
	return Instruction{Code: ins}, nil
}

func mustInstruction(ins InsCode) Instruction {
	i, err := NewInstruction(ins)
	if err != nil {
		panic(err)
	}
	return i
}

// Verbose returns a human-readable description of the instruction.
func (i Instruction) Verbose() string {
	return fmt.Sprintf("INS: 0x%02X (%s)", byte(i.Code), i.Code)
}
