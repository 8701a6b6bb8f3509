package packet

import (
	"fmt"

	"github.com/gregLibert/gsm0348/pkg/coding"
	"github.com/gregLibert/gsm0348/pkg/profile"
	"go.uber.org/zap"
)

// BuildCommand secures data as a command packet for the configured profile.
//
// counter is required (5 bytes) unless the command SPI says "no counter", in which
// case the counter field is zero. cipherKey and sigKey are only needed when the
// command is ciphered or certified with a keyed algorithm.
func (b *Builder) BuildCommand(data, counter, cipherKey, sigKey []byte) ([]byte, error) {
	s, err := b.settings()
	if err != nil {
		return nil, err
	}
	p := s.profile
	spi := p.SPI.Command

	f, err := commandFraming(p.Transport)
	if err != nil {
		return nil, err
	}
	cnt, err := counterField(spi.CounterMode, counter)
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
		pad = paddingFor(counterSize+paddingCounterSize+sigLen+len(data), s.blockSize)
	}

	chl, err := coding.EncodeLength1(commandHeaderSize + sigLen)
	if err != nil {
		return nil, err
	}
	prefix, err := f.encode(1 + commandHeaderSize + sigLen + len(data) + pad)
	if err != nil {
		return nil, err
	}
	header, err := p.Header()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	padding := make([]byte, pad)
	var sig []byte
	if certified {
		signed := concat(f.signingPrefix(prefix), chl, header, cnt[:], []byte{byte(pad)}, data, padding)
		if sig, err = b.sign(s.mac, sigKey, signed); err != nil {
			return nil, err
		}
	}

	secured := concat(cnt[:], []byte{byte(pad)}, sig, data, padding)
	if spi.Ciphered {
		if secured, err = b.registry.Ciphers.Encipher(s.cipher, cipherKey, secured); err != nil {
			return nil, err
		}
	}

	out := concat(prefix, chl, header, secured)
	b.log.Debug("command packet built",
		zap.Stringer("transport", p.Transport),
		zap.Int("data", len(data)),
		zap.Int("padding", pad),
		zap.Int("size", len(out)),
	)
	return out, nil
}

// RecoverCommand parses, deciphers and verifies a command packet.
//
// The security parameters are taken from the packet header itself. Only the
// transport and the algorithm names come from the configured profile.
func (b *Builder) RecoverCommand(raw, cipherKey, sigKey []byte) (*CommandPacket, error) {
	s, err := b.settings()
	if err != nil {
		return nil, err
	}
	t := s.profile.Transport

	f, err := commandFraming(t)
	if err != nil {
		return nil, err
	}
	prefix, body, err := f.split(raw)
	if err != nil {
		return nil, err
	}
	if len(body) < 1+commandHeaderSize {
		return nil, fmt.Errorf("%w: command packet too short (%d bytes)", ErrCoding, len(body))
	}

	chl, header := body[0], body[1:1+headerFieldsSize]

	// DS is refused before the KID, whose meaning depends on it, is decoded.
	spi, err := coding.DecodeCommandSPI(header[0])
	if err != nil {
		return nil, err
	}
	if spi.CertificationMode == coding.DS {
		return nil, fmt.Errorf("%w: digital signature is not supported", ErrConfiguration)
	}

	hp, err := profile.ParseHeader(header, t)
	if err != nil {
		return nil, err
	}
	hp.CipherName, hp.SignatureName = s.profile.CipherName, s.profile.SignatureName

	certified := spi.CertificationMode != coding.NoSecurity
	sigLen := 0
	var mac = s.mac
	if certified {
		if mac, err = hp.ResolveSignature(); err != nil {
			return nil, err
		}
		if sigLen, err = b.registry.Signatures.SignLength(mac); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}
	if int(chl) != commandHeaderSize+sigLen {
		return nil, fmt.Errorf("%w: header length %d, expected %d", ErrCoding, chl, commandHeaderSize+sigLen)
	}

	rest := body[1+headerFieldsSize:]
	if len(rest) < counterSize+paddingCounterSize+sigLen {
		return nil, fmt.Errorf("%w: secured part too short (%d bytes)", ErrCoding, len(rest))
	}

	blockSize := 0
	if spi.Ciphered {
		alg, err := hp.ResolveCipher()
		if err != nil {
			return nil, err
		}
		bs, err := b.registry.Ciphers.BlockSize(alg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		if len(rest)%bs != 0 {
			return nil, fmt.Errorf("%w: ciphered part is %d bytes, not a multiple of %d", ErrCoding, len(rest), bs)
		}
		if err := requireKey(true, cipherKey, "cipher"); err != nil {
			return nil, err
		}
		if rest, err = b.registry.Ciphers.Decipher(alg, cipherKey, rest); err != nil {
			return nil, err
		}
		blockSize = bs
	}

	cnt := rest[:counterSize]
	pcntr := rest[counterSize]
	sig := rest[counterSize+paddingCounterSize : counterSize+paddingCounterSize+sigLen]
	payload := rest[counterSize+paddingCounterSize+sigLen:]

	if certified {
		if err := requireKey(b.registry.Signatures.KeyRequired(mac), sigKey, "signature"); err != nil {
			return nil, err
		}
		signed := concat(f.signingPrefix(prefix), []byte{chl}, header, cnt, []byte{pcntr}, payload)
		if err := b.verify(mac, sigKey, signed, sig); err != nil {
			return nil, err
		}
	}

	if err := checkPadding(pcntr, blockSize, len(payload)); err != nil {
		return nil, err
	}

	pkt := &CommandPacket{
		Header: CommandHeader{
			Transport:      t,
			CommandSPI:     hp.SPI.Command,
			ResponseSPI:    hp.SPI.Response,
			KIC:            hp.KIC,
			KID:            hp.KID,
			TAR:            hp.TAR,
			PaddingCounter: pcntr,
			Signature:      clone(sig),
		},
		Data: clone(payload[:len(payload)-int(pcntr)]),
	}
	copy(pkt.Header.Counter[:], cnt)

	b.log.Debug("command packet recovered",
		zap.Stringer("transport", t),
		zap.Int("data", len(pkt.Data)),
		zap.Int("padding", int(pcntr)),
	)
	return pkt, nil
}

// checkPadding validates the padding counter against the cipher block size,
// 0 for a packet that is not ciphered, and the bytes that follow the signature.
func checkPadding(pcntr byte, blockSize, n int) error {
	if blockSize == 0 && pcntr != 0 {
		return fmt.Errorf("%w: padding counter %d on a packet that is not ciphered", ErrCoding, pcntr)
	}
	if blockSize > 0 && int(pcntr) >= blockSize {
		return fmt.Errorf("%w: padding counter %d is not below the block size %d", ErrCoding, pcntr, blockSize)
	}
	if int(pcntr) > n {
		return fmt.Errorf("%w: padding counter %d exceeds the %d data bytes", ErrCoding, pcntr, n)
	}
	return nil
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// clone copies b so that a recovered packet never aliases the caller's buffer.
// An empty input gives nil.
func clone(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}
