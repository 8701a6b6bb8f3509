package packet

import (
	"fmt"
	"strings"

	"github.com/gregLibert/gsm0348/pkg/coding"
	"github.com/gregLibert/gsm0348/pkg/profile"
	"github.com/gregLibert/gsm0348/pkg/tlv"
)

// CommandHeader is the decoded header of a recovered command packet.
type CommandHeader struct {
	Transport profile.Transport `describe:"-"`

	CommandSPI     coding.CommandSPI
	ResponseSPI    coding.ResponseSPI
	KIC            coding.KIC
	KID            coding.KID
	TAR            [3]byte
	Counter        [5]byte `fmt:"int"`
	PaddingCounter uint8   `fmt:"int"`
	Signature      []byte
}

// Profile returns the profile the header was built with. Algorithm names are
// not carried on the wire and are left empty.
func (h CommandHeader) Profile() profile.Profile {
	return profile.Profile{
		Transport: h.Transport,
		SPI:       profile.SPI{Command: h.CommandSPI, Response: h.ResponseSPI},
		KIC:       h.KIC,
		KID:       h.KID,
		TAR:       h.TAR,
	}
}

// ResponseHeader is the decoded header of a recovered response packet.
type ResponseHeader struct {
	Transport profile.Transport `describe:"-"`

	TAR            [3]byte
	Counter        [5]byte `fmt:"int"`
	PaddingCounter uint8   `fmt:"int"`
	Status         coding.ResponseStatus
	Signature      []byte
}

// CommandPacket is a command packet after deciphering and verification.
type CommandPacket struct {
	Header CommandHeader
	Data   []byte
}

// ResponsePacket is a response packet after deciphering and verification.
type ResponsePacket struct {
	Header ResponseHeader
	Data   []byte
}

// Describe returns a human-readable report of the packet.
func (p *CommandPacket) Describe() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== COMMAND PACKET (%s) ===", p.Header.Transport))

	tlv.WriteStructFields(&sb, "Header", p.Header)
	tlv.WriteStructFields(&sb, "Packet", struct{ Data []byte }{p.Data})

	return strings.TrimRight(sb.String(), "\n")
}

// Describe returns a human-readable report of the packet.
func (p *ResponsePacket) Describe() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== RESPONSE PACKET (%s) ===", p.Header.Transport))

	tlv.WriteStructFields(&sb, "Header", p.Header)
	tlv.WriteStructFields(&sb, "Packet", struct{ Data []byte }{p.Data})

	return strings.TrimRight(sb.String(), "\n")
}
