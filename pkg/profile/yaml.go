package profile

import (
	"fmt"
	"io"
	"os"

	"github.com/gregLibert/gsm0348/pkg/tlv"
	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a profile:
//
//	transport: SMS_PP
//	header: "06 21 12 12 B00010"   # SPI(2) KIC KID TAR(3)
//	cipher_algorithm: ""
//	signature_algorithm: AES_CMAC_64
type Document struct {
	Transport          string `yaml:"transport"`
	Header             string `yaml:"header"`
	CipherAlgorithm    string `yaml:"cipher_algorithm,omitempty"`
	SignatureAlgorithm string `yaml:"signature_algorithm,omitempty"`
}

// Profile converts the document and validates the result.
func (d Document) Profile() (Profile, error) {
	t, err := ParseTransport(d.Transport)
	if err != nil {
		return Profile{}, err
	}

	raw, err := tlv.ParseHex(d.Header)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: header: %v", ErrConfiguration, err)
	}

	p, err := ParseHeader(raw, t)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: header: %w", ErrConfiguration, err)
	}
	p.CipherName = d.CipherAlgorithm
	p.SignatureName = d.SignatureAlgorithm

	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// NewDocument is the inverse of Document.Profile.
func NewDocument(p Profile) (Document, error) {
	h, err := p.Header()
	if err != nil {
		return Document{}, err
	}
	return Document{
		Transport:          p.Transport.String(),
		Header:             fmt.Sprintf("%X", h),
		CipherAlgorithm:    p.CipherName,
		SignatureAlgorithm: p.SignatureName,
	}, nil
}

// Decode reads a single YAML profile document. Unknown keys are rejected.
func Decode(r io.Reader) (Profile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return Profile{}, fmt.Errorf("%w: decode profile: %v", ErrConfiguration, err)
	}
	return doc.Profile()
}

// LoadFile reads a YAML profile from path.
func LoadFile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	return Decode(f)
}
