package packet

import (
	"fmt"

	"github.com/gregLibert/gsm0348/pkg/coding"
	"go.uber.org/zap"
)

// BuildResponse secures data as a response packet (PoR) for the configured profile.
// Security is applied as requested by the response SPI; the counter follows
// the counter mode of the command SPI.
func (b *Builder) BuildResponse(data, counter, cipherKey, sigKey []byte, status coding.ResponseStatus) ([]byte, error) {
	s, err := b.settings()
	if err != nil {
		return nil, err
	}
	p := s.profile
	spi := p.SPI.Response

	f, err := responseFraming(p.Transport)
	if err != nil {
		return nil, err
	}
	cnt, err := counterField(p.SPI.Command.CounterMode, counter)
	if err != nil {
		return nil, err
	}
	code, err := status.Encode()
	if err != nil {
		return nil, err
	}

	certified := spi.CertificationMode != coding.NoSecurity
	sigLen := 0
	if certified {
		if err := requireKey(b.registry.Signatures.KeyRequired(s.mac), sigKey, "signature"); err != nil {
			return nil, err
		}
		sigLen = s.macSize
	}

	pad := 0
	if spi.Ciphered {
		if err := requireKey(true, cipherKey, "cipher"); err != nil {
			return nil, err
		}
		pad = paddingFor(counterSize+paddingCounterSize+statusSize+sigLen+len(data), s.blockSize)
	}

	rhl, err := coding.EncodeLength1(responseHeaderSize + sigLen)
	if err != nil {
		return nil, err
	}
	prefix, err := f.encode(1 + responseHeaderSize + sigLen + len(data) + pad)
	if err != nil {
		return nil, err
	}

	padding := make([]byte, pad)
	var sig []byte
	if certified {
		signed := concat(f.signingPrefix(prefix), rhl, p.TAR[:], cnt[:], []byte{byte(pad), code}, data, padding)
		if sig, err = b.sign(s.mac, sigKey, signed); err != nil {
			return nil, err
		}
	}

	secured := concat(cnt[:], []byte{byte(pad), code}, sig, data, padding)
	if spi.Ciphered {
		if secured, err = b.registry.Ciphers.Encipher(s.cipher, cipherKey, secured); err != nil {
			return nil, err
		}
	}

	out := concat(prefix, rhl, p.TAR[:], secured)
	b.log.Debug("response packet built",
		zap.Stringer("transport", p.Transport),
		zap.Stringer("status", status),
		zap.Int("data", len(data)),
		zap.Int("padding", pad),
		zap.Int("size", len(out)),
	)
	return out, nil
}

// RecoverResponse parses, deciphers and verifies a response packet.
// A response carries no SPI, so its security is the one of the configured profile.
// The TAR of the packet is reported as is and not compared with the profile.
func (b *Builder) RecoverResponse(raw, cipherKey, sigKey []byte) (*ResponsePacket, error) {
	s, err := b.settings()
	if err != nil {
		return nil, err
	}
	p := s.profile
	spi := p.SPI.Response

	f, err := responseFraming(p.Transport)
	if err != nil {
		return nil, err
	}
	prefix, body, err := f.split(raw)
	if err != nil {
		return nil, err
	}
	if len(body) < 1+responseHeaderSize {
		return nil, fmt.Errorf("%w: response packet too short (%d bytes)", ErrCoding, len(body))
	}

	certified := spi.CertificationMode != coding.NoSecurity
	sigLen := 0
	if certified {
		sigLen = s.macSize
	}

	rhl, tar := body[0], body[1:4]
	if int(rhl) != responseHeaderSize+sigLen {
		return nil, fmt.Errorf("%w: header length %d, expected %d", ErrCoding, rhl, responseHeaderSize+sigLen)
	}

	rest := body[4:]
	const fixed = counterSize + paddingCounterSize + statusSize
	if len(rest) < fixed+sigLen {
		return nil, fmt.Errorf("%w: secured part too short (%d bytes)", ErrCoding, len(rest))
	}

	blockSize := 0
	if spi.Ciphered {
		if len(rest)%s.blockSize != 0 {
			return nil, fmt.Errorf("%w: ciphered part is %d bytes, not a multiple of %d", ErrCoding, len(rest), s.blockSize)
		}
		if err := requireKey(true, cipherKey, "cipher"); err != nil {
			return nil, err
		}
		if rest, err = b.registry.Ciphers.Decipher(s.cipher, cipherKey, rest); err != nil {
			return nil, err
		}
		blockSize = s.blockSize
	}

	cnt := rest[:counterSize]
	pcntr := rest[counterSize]
	status, err := coding.DecodeResponseStatus(rest[counterSize+paddingCounterSize])
	if err != nil {
		return nil, err
	}
	sig := rest[fixed : fixed+sigLen]
	payload := rest[fixed+sigLen:]

	if certified {
		if err := requireKey(b.registry.Signatures.KeyRequired(s.mac), sigKey, "signature"); err != nil {
			return nil, err
		}
		signed := concat(f.signingPrefix(prefix), []byte{rhl}, tar, cnt, []byte{pcntr, byte(status)}, payload)
		if err := b.verify(s.mac, sigKey, signed, sig); err != nil {
			return nil, err
		}
	}

	if err := checkPadding(pcntr, blockSize, len(payload)); err != nil {
		return nil, err
	}

	pkt := &ResponsePacket{
		Header: ResponseHeader{
			Transport:      p.Transport,
			PaddingCounter: pcntr,
			Status:         status,
			Signature:      clone(sig),
		},
		Data: clone(payload[:len(payload)-int(pcntr)]),
	}
	copy(pkt.Header.TAR[:], tar)
	copy(pkt.Header.Counter[:], cnt)

	b.log.Debug("response packet recovered",
		zap.Stringer("transport", p.Transport),
		zap.Stringer("status", status),
		zap.Int("data", len(pkt.Data)),
		zap.Int("padding", int(pcntr)),
	)
	return pkt, nil
}
