// Package envelope delivers secured command packets to a card the way a handset
// does for SMS-PP data download (3GPP TS 31.111): the packet is put in an
// SMS-DELIVER TPDU, nested in an SMS-PP download BER-TLV and sent with ENVELOPE.
// The card answers with the response packet (PoR), if any.
package envelope

import (
	"errors"
	"fmt"
	"time"

	"github.com/moov-io/bertlv"
	"go.uber.org/zap"

	"github.com/gregLibert/gsm0348/pkg/iso7816"
)

// BER-TLV tags of the SMS-PP download envelope.
const (
	TagSMSPPDownload    = "D1"
	TagDeviceIdentities = "82"
	TagAddress          = "86"
	TagSMSTPDU          = "8B"
)

// Device identities: source network (83) to UICC (81).
var networkToUICC = [2]byte{0x83, 0x81}

// DefaultOriginator is the TP-OA used when none is configured.
const DefaultOriginator = "1234"

var (
	// ErrSMS reports a TPDU that cannot be built or parsed.
	ErrSMS = errors.New("invalid SMS-PP data download")
	// ErrBusy is returned when the toolkit is busy (9300). The download may be retried.
	ErrBusy = errors.New("card toolkit busy")
	// ErrCardStatus is returned for any other unexpected status word.
	ErrCardStatus = errors.New("card rejected the envelope")
)

// Option configures a Downloader.
type Option func(*Downloader)

// WithCLA sets the class byte of the ENVELOPE. Use iso7816.ClaGSM for a GSM SIM.
func WithCLA(cla byte) Option {
	return func(d *Downloader) { d.CLA = cla }
}

// WithOriginator sets the TP-OA digits.
func WithOriginator(number string) Option {
	return func(d *Downloader) { d.Originator = number }
}

// WithServiceCenter adds an address TLV with the SMSC number.
func WithServiceCenter(number string) Option {
	return func(d *Downloader) { d.ServiceCenter = number }
}

// WithClock sets the source of TP-SCTS.
func WithClock(now func() time.Time) Option {
	return func(d *Downloader) { d.Now = now }
}

// Downloader sends SMS-PP command packets through an APDU client.
type Downloader struct {
	Client        *iso7816.Client
	CLA           byte
	Originator    string
	ServiceCenter string
	Now           func() time.Time
}

// New creates a Downloader using the UICC toolkit class.
func New(client *iso7816.Client, opts ...Option) *Downloader {
	d := &Downloader{
		Client:     client,
		CLA:        iso7816.ClaUICCToolkit,
		Originator: DefaultOriginator,
		Now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Encode builds the D1 envelope for a packet framed for SMS_PP.
func (d *Downloader) Encode(packet []byte) ([]byte, error) {
	tpdu, err := deliverTPDU(d.Originator, d.Now(), packet)
	if err != nil {
		return nil, err
	}

	fields := []bertlv.TLV{{Tag: TagDeviceIdentities, Value: networkToUICC[:]}}
	if d.ServiceCenter != "" {
		_, addr, err := encodeAddress(d.ServiceCenter)
		if err != nil {
			return nil, fmt.Errorf("service center: %w", err)
		}
		fields = append(fields, bertlv.TLV{Tag: TagAddress, Value: addr})
	}
	fields = append(fields, bertlv.TLV{Tag: TagSMSTPDU, Value: tpdu})

	body, err := bertlv.Encode(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding download fields: %w", err)
	}
	out, err := bertlv.Encode([]bertlv.TLV{{Tag: TagSMSPPDownload, Value: body}})
	if err != nil {
		return nil, fmt.Errorf("encoding download template: %w", err)
	}
	return out, nil
}

// Download sends packet and returns the response packet, without the user data
// header of the SMS-DELIVER-REPORT. A card that answers 9000 without data yields
// an empty, non-nil slice.
func (d *Downloader) Download(packet []byte) ([]byte, error) {
	por, _, err := d.Exchange(packet)
	return por, err
}

// Exchange is Download returning the APDU trace as well.
func (d *Downloader) Exchange(packet []byte) ([]byte, iso7816.Trace, error) {
	data, err := d.Encode(packet)
	if err != nil {
		return nil, nil, err
	}

	trace, err := d.Client.Send(iso7816.Envelope(d.CLA, data))
	if err != nil {
		return nil, trace, err
	}

	first := trace[0].Response.Status
	last, _ := trace.Status()

	switch {
	case first == iso7816.SW_TOOLKIT_BUSY:
		return nil, trace, ErrBusy
	case !trace.IsSuccess():
		return nil, trace, fmt.Errorf("%w: %s", ErrCardStatus, last.Verbose())
	}

	if first.IsDownloadError() {
		d.Client.Logger.Info("data download error reported", zap.String("status", first.Verbose()))
	}
	if n, ok := last.ProactivePending(); ok {
		d.Client.Logger.Debug("proactive command pending", zap.Int("length", n))
	}

	por := responsePacket(trace.Data())
	if por == nil {
		por = []byte{}
	}
	d.Client.Logger.Debug("envelope delivered",
		zap.Int("packet_length", len(packet)),
		zap.Int("por_length", len(por)),
		zap.Int("exchanges", len(trace)))
	return por, trace, nil
}
