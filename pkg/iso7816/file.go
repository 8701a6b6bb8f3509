package iso7816

import "fmt"

// File identifiers of the master file and EF_ICCID (ETSI TS 102 221).
const (
	FileMF    uint16 = 0x3F00
	FileICCID uint16 = 0x2FE2
)

// EFICCIDSize is the size of EF_ICCID.
const EFICCIDSize = 10

// Envelope builds an ENVELOPE command carrying a BER-TLV envelope object.
func Envelope(cla byte, data []byte) *CommandAPDU {
	return NewCommandAPDU(cla, mustInstruction(INS_ENVELOPE), 0x00, 0x00, data, 0)
}

// SelectFile builds a SELECT by file identifier.
// Under the GSM class P2 is 00, a UICC is asked for no response data (P2 = 0C).
func SelectFile(cla byte, fid uint16) *CommandAPDU {
	p2 := byte(0x0C)
	if cla == ClaGSM {
		p2 = 0x00
	}
	return NewCommandAPDU(cla, mustInstruction(INS_SELECT), 0x00, p2, []byte{byte(fid >> 8), byte(fid)}, 0)
}

// ReadBinary builds a READ BINARY of n bytes at offset on the current EF.
func ReadBinary(cla byte, offset uint16, n int) (*CommandAPDU, error) {
	if offset > 0x7FFF {
		return nil, fmt.Errorf("offset 0x%04X out of range", offset)
	}
	if n <= 0 || n > MaxShortLe {
		return nil, fmt.Errorf("read length %d out of range", n)
	}
	return NewCommandAPDU(cla, mustInstruction(INS_READ_BINARY), byte(offset>>8), byte(offset), nil, n), nil
}

// ReadICCID selects EF_ICCID from the MF and reads it.
// It returns the raw, nibble-swapped content.
func (c *Client) ReadICCID(cla byte) ([]byte, Trace, error) {
	var trace Trace

	for _, fid := range []uint16{FileMF, FileICCID} {
		tr, err := c.Send(SelectFile(cla, fid))
		trace = append(trace, tr...)
		if err != nil {
			return nil, trace, err
		}
		if !tr.IsSuccess() {
			sw, _ := tr.Status()
			return nil, trace, fmt.Errorf("select %04X: %s", fid, sw.Verbose())
		}
	}

	cmd, err := ReadBinary(cla, 0, EFICCIDSize)
	if err != nil {
		return nil, trace, err
	}
	tr, err := c.Send(cmd)
	trace = append(trace, tr...)
	if err != nil {
		return nil, trace, err
	}
	if !tr.IsSuccess() {
		sw, _ := tr.Status()
		return nil, trace, fmt.Errorf("read binary: %s", sw.Verbose())
	}

	return tr.Data(), trace, nil
}
