/*
Package coding implements the byte-level codecs of a GSM 03.48 (ETSI TS 102.225 / 3GPP TS 31.115) secured packet header.

# Length fields

Packets carried over CAT_TP, TCP/IP or USSD are prefixed by a BER definite length, SMS bearers use a fixed two-byte length, and the header length is always a single byte.

# Header fields

	SPI (2 bytes)  Command and response security parameters.
	KIC (1 byte)   Ciphering algorithm, mode and keyset.
	KID (1 byte)   Integrity algorithm, mode and keyset.
	Status (1 byte, response only).

Every codec is the exact inverse of its encoder. Reserved or undefined bit patterns are rejected with a *FieldError that matches ErrCoding:

	spi, err := coding.DecodeCommandSPI(0x16)
	if err != nil {
	    return err
	}
	kid, err := coding.DecodeKID(0x15, spi.CertificationMode)

The KID is the only field whose meaning depends on a sibling: the same byte is a CRC selector under RC and a DES selector under CC, so DecodeKID always receives the certification mode.
*/
package coding
