package envelope

import (
	"fmt"
	"strings"
	"time"
)

// SMS-DELIVER TPDU carrying a command packet (3GPP TS 23.040, TS 31.115):
//
//	First octet  TP-MTI 00 (SMS-DELIVER), TP-UDHI set.
//	TP-OA        originating address (length in digits, TON/NPI, swapped BCD).
//	TP-PID       7F (SIM data download).
//	TP-DCS       F6 (8-bit data, class 2).
//	TP-SCTS      service centre time stamp, 7 semi-octets.
//	TP-UDL       user data length in octets.
//	TP-UD        02 70 00 (UDH with the command packet IEI) then the packet.
const (
	firstOctetDeliver = 0x40
	pidDataDownload   = 0x7F
	dcsClass2Data     = 0xF6

	ieiCommandPacket  = 0x70
	ieiResponsePacket = 0x71
	udhCommandPacket  = 3 // UDHL, IEI, IEDL
	maxUserData       = 140

	// MaxPacketSize is the largest command packet that fits a single SMS.
	MaxPacketSize = maxUserData - udhCommandPacket

	udhiBit  = 0x40
	mtiMask  = 0x03
	tonIntl  = 0x91
	tonOther = 0x81
)

// encodeAddress returns TON/NPI followed by the swapped BCD digits.
// A leading '+' selects the international numbering plan.
func encodeAddress(number string) (digits int, out []byte, err error) {
	ton := byte(tonOther)
	if strings.HasPrefix(number, "+") {
		ton = tonIntl
		number = number[1:]
	}
	if number == "" {
		return 0, nil, fmt.Errorf("%w: empty address", ErrSMS)
	}

	out = append(out, ton)
	for i := 0; i < len(number); i += 2 {
		lo, err := bcdDigit(number[i])
		if err != nil {
			return 0, nil, err
		}
		hi := byte(0x0F)
		if i+1 < len(number) {
			if hi, err = bcdDigit(number[i+1]); err != nil {
				return 0, nil, err
			}
		}
		out = append(out, hi<<4|lo)
	}
	return len(number), out, nil
}

func bcdDigit(c byte) (byte, error) {
	if c < '0' || c > '9' {
		return 0, fmt.Errorf("%w: %q is not a digit", ErrSMS, c)
	}
	return c - '0', nil
}

// encodeTimestamp writes t as TP-SCTS semi-octets, time zone 0.
func encodeTimestamp(t time.Time) []byte {
	t = t.UTC()
	fields := []int{t.Year() % 100, int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), 0}
	out := make([]byte, len(fields))
	for i, v := range fields {
		out[i] = byte(v%10)<<4 | byte(v/10)
	}
	return out
}

func deliverTPDU(originator string, scts time.Time, packet []byte) ([]byte, error) {
	if len(packet) > MaxPacketSize {
		return nil, fmt.Errorf("%w: %d byte packet exceeds %d", ErrSMS, len(packet), MaxPacketSize)
	}

	digits, oa, err := encodeAddress(originator)
	if err != nil {
		return nil, err
	}

	tpdu := make([]byte, 0, 2+len(oa)+2+7+1+udhCommandPacket+len(packet))
	tpdu = append(tpdu, firstOctetDeliver, byte(digits))
	tpdu = append(tpdu, oa...)
	tpdu = append(tpdu, pidDataDownload, dcsClass2Data)
	tpdu = append(tpdu, encodeTimestamp(scts)...)
	tpdu = append(tpdu, byte(udhCommandPacket+len(packet)), 0x02, ieiCommandPacket, 0x00)
	tpdu = append(tpdu, packet...)
	return tpdu, nil
}

// commandPacketFromTPDU extracts the command packet from an SMS-DELIVER TPDU.
func commandPacketFromTPDU(tpdu []byte) ([]byte, error) {
	fail := func(reason string) ([]byte, error) {
		return nil, fmt.Errorf("%w: %s", ErrSMS, reason)
	}

	if len(tpdu) < 2 {
		return fail("TPDU too short")
	}
	first := tpdu[0]
	if first&mtiMask != 0 {
		return fail("not an SMS-DELIVER")
	}

	// OA: digit count, TON/NPI, ceil(digits/2) octets.
	pos := 2 + 1 + (int(tpdu[1])+1)/2
	// PID, DCS, SCTS, UDL.
	if len(tpdu) < pos+10 {
		return fail("TPDU truncated before user data")
	}
	if tpdu[pos] != pidDataDownload {
		return fail(fmt.Sprintf("TP-PID %02X is not SIM data download", tpdu[pos]))
	}
	udl := int(tpdu[pos+9])
	ud := tpdu[pos+10:]
	if len(ud) != udl {
		return fail(fmt.Sprintf("TP-UDL %d but %d bytes of user data", udl, len(ud)))
	}

	if first&udhiBit == 0 {
		return fail("no user data header")
	}
	if len(ud) < 1 || len(ud) < 1+int(ud[0]) {
		return fail("user data header truncated")
	}
	header, body := ud[1:1+int(ud[0])], ud[1+int(ud[0]):]

	for i := 0; i+1 < len(header); {
		iei, iedl := header[i], int(header[i+1])
		if iei == ieiCommandPacket {
			return body, nil
		}
		i += 2 + iedl
	}
	return fail("no command packet information element")
}

// responsePacket drops the user data header the card puts in front of a
// response packet (IEI 71). Data without it is returned unchanged.
func responsePacket(data []byte) []byte {
	if len(data) < 3 || int(data[0])+1 > len(data) {
		return data
	}
	header := data[1 : 1+int(data[0])]
	for i := 0; i+1 < len(header); i += 2 + int(header[i+1]) {
		if header[i] == ieiResponsePacket {
			return data[1+int(data[0]):]
		}
	}
	return data
}
