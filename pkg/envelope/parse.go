package envelope

import (
	"fmt"

	"github.com/gregLibert/gsm0348/pkg/tlv"
)

// Download is a decoded SMS-PP download envelope.
type Download struct {
	DeviceIdentities [2]byte `tlv:"82"`
	Address          []byte  `tlv:"86"`
	TPDU             []byte  `tlv:"8B"`

	// Packet is the command packet carried by the TPDU.
	Packet []byte
}

type downloadTemplate struct {
	Download Download `tlv:"D1"`
}

// ParseDownload decodes an envelope built by Encode, or captured from a handset.
func ParseDownload(data []byte) (*Download, error) {
	var tmpl downloadTemplate
	if err := tlv.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSMS, err)
	}

	d := tmpl.Download
	if d.TPDU == nil {
		return nil, fmt.Errorf("%w: no SMS TPDU", ErrSMS)
	}

	packet, err := commandPacketFromTPDU(d.TPDU)
	if err != nil {
		return nil, err
	}
	d.Packet = packet
	return &d, nil
}
