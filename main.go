package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ebfe/scard"
	"golang.org/x/term"

	"github.com/gregLibert/gsm0348/pkg/config"
	"github.com/gregLibert/gsm0348/pkg/envelope"
	"github.com/gregLibert/gsm0348/pkg/iso7816"
	"github.com/gregLibert/gsm0348/pkg/keygen"
	"github.com/gregLibert/gsm0348/pkg/logger"
	"github.com/gregLibert/gsm0348/pkg/packet"
	"github.com/gregLibert/gsm0348/pkg/profile"
	"github.com/gregLibert/gsm0348/pkg/tlv"
)

func main() {
	configPath := flag.String("config", "gsm0348.yaml", "path to the YAML run file")
	send := flag.Bool("send", false, "send the command packet to the card with ENVELOPE (SMS_PP only)")
	promptKeys := flag.Bool("prompt-keys", false, "read missing keys from the terminal")
	captured := flag.String("envelope", "", "describe the command packet in a captured ENVELOPE (hex) instead of building one")
	flag.Parse()

	if err := run(*configPath, *send, *promptKeys, *captured); err != nil {
		logger.Error("run failed", logger.Err(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// keys are the KIC and KID keys of a run.
type keys struct {
	cipher    []byte
	signature []byte
}

func run(configPath string, send, promptKeys bool, captured string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}

	p, err := cfg.SecurityProfile()
	if err != nil {
		return err
	}
	data, err := cfg.DataBytes()
	if err != nil {
		return err
	}
	counter, err := cfg.CounterBytes()
	if err != nil {
		return err
	}

	var card *cardSession
	if send && captured != "" {
		return errors.New("-send and -envelope cannot be combined")
	}
	if send {
		if p.Transport != profile.SMSPP {
			return fmt.Errorf("-send needs an SMS_PP profile, got %s", p.Transport)
		}
		if card, err = connectToCard(cfg.Card.ReaderIndex()); err != nil {
			return err
		}
		defer card.Close()
	}

	k, err := loadKeys(cfg, p, card, promptKeys)
	if err != nil {
		return err
	}

	builder := packet.NewBuilder(packet.WithLogger(logger.Named("packet")))
	if err := builder.Configure(p); err != nil {
		return err
	}

	if captured != "" {
		return describeEnvelope(builder, captured, k)
	}

	raw, err := builder.BuildCommand(data, counter[:], k.cipher, k.signature)
	if err != nil {
		return err
	}
	fmt.Printf(">> Command packet (%d bytes)\n%X\n\n", len(raw), raw)

	// Reading our own packet back checks the keys before anything reaches a card.
	cmd, err := builder.RecoverCommand(raw, k.cipher, k.signature)
	if err != nil {
		return fmt.Errorf("self-check: %w", err)
	}
	fmt.Println(cmd.Describe())

	if card == nil {
		return nil
	}
	return download(card, cfg, builder, raw, k)
}

// loadKeys takes keys from the configuration, then the master key
// diversification, then the terminal.
func loadKeys(cfg *config.Config, p profile.Profile, card *cardSession, prompt bool) (keys, error) {
	var k keys
	var err error

	if k.cipher, err = cfg.CipherKey(); err != nil {
		return k, err
	}
	if k.signature, err = cfg.SignatureKey(); err != nil {
		return k, err
	}

	needCipher := p.Ciphered() && k.cipher == nil
	needSignature := p.Certified() && k.signature == nil

	master, err := cfg.MasterKey()
	if err != nil {
		return k, err
	}
	if master != nil && (needCipher || needSignature) {
		derived, err := deriveKey(cfg, master, card)
		if err != nil {
			return k, err
		}
		if needCipher {
			k.cipher, needCipher = derived, false
		}
		if needSignature {
			k.signature, needSignature = derived, false
		}
	}

	if !prompt {
		return k, nil
	}
	if needCipher {
		if k.cipher, err = readKey("KIC key (hex): "); err != nil {
			return k, err
		}
	}
	if needSignature {
		if k.signature, err = readKey("KID key (hex, empty for none): "); err != nil {
			return k, err
		}
	}
	return k, nil
}

func deriveKey(cfg *config.Config, master []byte, card *cardSession) ([]byte, error) {
	iccid := cfg.Keys.ICCID
	if iccid == "" {
		if card == nil {
			return nil, errors.New("config.keys.master needs config.keys.iccid or -send to read the ICCID")
		}
		content, trace, err := card.client.ReadICCID(cfg.Card.FileCLA())
		logger.Debug("EF_ICCID read", logger.String("trace", trace.Describe()))
		if err != nil {
			return nil, fmt.Errorf("reading EF_ICCID: %w", err)
		}
		if iccid, err = keygen.ParseEFICCID(content); err != nil {
			return nil, err
		}
	}

	key, err := keygen.Derive(nil, master, iccid)
	if err != nil {
		return nil, err
	}
	logger.Info("card key derived", logger.String("iccid", iccid))
	return key, nil
}

// readKey reads hex without echo when stdin is a terminal.
func readKey(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	var line string
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		line = string(b)
	} else {
		s, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && s == "" {
			return nil, fmt.Errorf("read key: %w", err)
		}
		line = s
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	return tlv.ParseHex(line)
}

func download(card *cardSession, cfg *config.Config, builder *packet.Builder, raw []byte, k keys) error {
	cla, err := cfg.Card.CLA()
	if err != nil {
		return err
	}

	opts := []envelope.Option{envelope.WithCLA(cla)}
	if cfg.Card.Originator != "" {
		opts = append(opts, envelope.WithOriginator(cfg.Card.Originator))
	}
	if cfg.Card.ServiceCenter != "" {
		opts = append(opts, envelope.WithServiceCenter(cfg.Card.ServiceCenter))
	}

	por, trace, err := envelope.New(card.client, opts...).Exchange(raw)
	fmt.Printf("\n>> ENVELOPE exchange\n%s\n", trace.Describe())
	if err != nil {
		return err
	}
	if len(por) == 0 {
		fmt.Println("\n>> No response packet")
		return nil
	}

	resp, err := builder.RecoverResponse(por, k.cipher, k.signature)
	if err != nil {
		return fmt.Errorf("response packet: %w", err)
	}
	fmt.Printf("\n%s\n", resp.Describe())
	return nil
}

// describeEnvelope decodes an SMS-PP data download and recovers the command
// packet it carries.
func describeEnvelope(builder *packet.Builder, captured string, k keys) error {
	data, err := tlv.ParseHex(captured)
	if err != nil {
		return fmt.Errorf("-envelope: %w", err)
	}
	d, err := envelope.ParseDownload(data)
	if err != nil {
		return err
	}
	fmt.Printf(">> SMS-PP data download\nDevice identities: % X\nAddress: % X\nTPDU (%d bytes): %X\n\n",
		d.DeviceIdentities, d.Address, len(d.TPDU), d.TPDU)

	cmd, err := builder.RecoverCommand(d.Packet, k.cipher, k.signature)
	if err != nil {
		return fmt.Errorf("command packet: %w", err)
	}
	fmt.Println(cmd.Describe())
	return nil
}

// cardSession is a PC/SC connection and the APDU client on top of it.
type cardSession struct {
	ctx    *scard.Context
	card   *scard.Card
	client *iso7816.Client
}

func connectToCard(index int) (*cardSession, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establishing PC/SC context: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) <= index {
		if relErr := ctx.Release(); relErr != nil {
			logger.Warn("failed to release context", logger.Err(relErr))
		}
		return nil, fmt.Errorf("reader %d not found (%d readers): %v", index, len(readers), err)
	}
	logger.Info("using reader", logger.String("reader", readers[index]))

	card, err := ctx.Connect(readers[index], scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		if relErr := ctx.Release(); relErr != nil {
			logger.Warn("failed to release context", logger.Err(relErr))
		}
		return nil, fmt.Errorf("connecting to card: %w", err)
	}

	return &cardSession{
		ctx:    ctx,
		card:   card,
		client: iso7816.NewClient(card, logger.Named("apdu")),
	}, nil
}

func (s *cardSession) Close() {
	if err := s.card.Disconnect(scard.LeaveCard); err != nil {
		logger.Warn("failed to disconnect card", logger.Err(err))
	}
	if err := s.ctx.Release(); err != nil {
		logger.Warn("failed to release context", logger.Err(err))
	}
}
