// Package config loads the YAML run file of the gsm0348 demo.
//
//	profile:
//	  transport: SMS_PP
//	  header: "16 21 12 12 B00010"
//	keys:
//	  cipher_file: keys/kic.hex      # relative to the config file
//	  signature: "000102030405060708090A0B0C0D0E0F"
//	  master: "0001020304050607"     # optional, derives missing keys from the ICCID
//	  iccid: "8900000000000000001"   # optional, read from the card when empty
//	counter: "0000000001"
//	data: "80E60200"
//	card:
//	  reader_index: 0
//	  class: UICC                    # UICC or GSM
//	  originator: "1234"
//	log:
//	  level: info
//	  format: console
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/gregLibert/gsm0348/pkg/iso7816"
	"github.com/gregLibert/gsm0348/pkg/keygen"
	"github.com/gregLibert/gsm0348/pkg/profile"
	"github.com/gregLibert/gsm0348/pkg/tlv"
)

// CounterSize is the length of the counter field.
const CounterSize = 5

type Config struct {
	Profile profile.Document `yaml:"profile"`
	Keys    KeysConfig       `yaml:"keys"`
	Counter string           `yaml:"counter"`
	Data    string           `yaml:"data"`
	Card    CardConfig       `yaml:"card"`
	Log     LogConfig        `yaml:"log"`
}

// KeysConfig holds each key either inline, in hex, or in a file containing hex.
type KeysConfig struct {
	Cipher        string `yaml:"cipher"`
	CipherFile    string `yaml:"cipher_file"`
	Signature     string `yaml:"signature"`
	SignatureFile string `yaml:"signature_file"`
	Master        string `yaml:"master"`
	MasterFile    string `yaml:"master_file"`
	ICCID         string `yaml:"iccid"`
}

type CardConfig struct {
	Reader        *int   `yaml:"reader_index"`
	Class         string `yaml:"class"`
	Originator    string `yaml:"originator"`
	ServiceCenter string `yaml:"service_center"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads, resolves and validates the file at path.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.resolvePaths(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem of the configuration at once.
func (c *Config) Validate() error {
	var err error

	if _, perr := c.Profile.Profile(); perr != nil {
		err = multierr.Append(err, fmt.Errorf("config.profile: %w", perr))
	}
	if _, kerr := c.CipherKey(); kerr != nil {
		err = multierr.Append(err, kerr)
	}
	if _, kerr := c.SignatureKey(); kerr != nil {
		err = multierr.Append(err, kerr)
	}
	if _, kerr := c.MasterKey(); kerr != nil {
		err = multierr.Append(err, kerr)
	}
	if c.Keys.ICCID != "" {
		if _, ierr := keygen.NormalizeICCID(c.Keys.ICCID); ierr != nil {
			err = multierr.Append(err, fmt.Errorf("config.keys.iccid: %w", ierr))
		}
	}
	if _, cerr := c.CounterBytes(); cerr != nil {
		err = multierr.Append(err, cerr)
	}
	if _, derr := c.DataBytes(); derr != nil {
		err = multierr.Append(err, derr)
	}
	if c.Card.Reader != nil && *c.Card.Reader < 0 {
		err = multierr.Append(err, fmt.Errorf("config.card.reader_index must be >= 0"))
	}
	if _, cerr := c.Card.CLA(); cerr != nil {
		err = multierr.Append(err, cerr)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("config.log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("config.log.format %q is not console or json", c.Log.Format))
	}

	return err
}

// SecurityProfile returns the validated profile.
func (c *Config) SecurityProfile() (profile.Profile, error) {
	return c.Profile.Profile()
}

// CipherKey returns the KIC key, nil when none is configured.
func (c *Config) CipherKey() ([]byte, error) {
	return loadKey(c.Keys.Cipher, c.Keys.CipherFile, "config.keys.cipher")
}

// SignatureKey returns the KID key, nil when none is configured.
func (c *Config) SignatureKey() ([]byte, error) {
	return loadKey(c.Keys.Signature, c.Keys.SignatureFile, "config.keys.signature")
}

// MasterKey returns the diversification master key, nil when none is configured.
func (c *Config) MasterKey() ([]byte, error) {
	key, err := loadKey(c.Keys.Master, c.Keys.MasterFile, "config.keys.master")
	if err != nil || key == nil {
		return key, err
	}
	if len(key) != keygen.MasterKeyLength {
		return nil, fmt.Errorf("config.keys.master must be %d bytes, got %d", keygen.MasterKeyLength, len(key))
	}
	return key, nil
}

// CounterBytes returns the 5-byte counter. An empty value is all zeros.
func (c *Config) CounterBytes() ([CounterSize]byte, error) {
	var out [CounterSize]byte
	if strings.TrimSpace(c.Counter) == "" {
		return out, nil
	}

	raw, err := tlv.ParseHex(c.Counter)
	if err != nil {
		return out, fmt.Errorf("config.counter: %w", err)
	}
	if len(raw) != CounterSize {
		return out, fmt.Errorf("config.counter must be %d bytes, got %d", CounterSize, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// DataBytes returns the secured data.
func (c *Config) DataBytes() ([]byte, error) {
	raw, err := tlv.ParseHex(c.Data)
	if err != nil {
		return nil, fmt.Errorf("config.data: %w", err)
	}
	return raw, nil
}

// ReaderIndex returns the PC/SC reader to use, 0 by default.
func (c CardConfig) ReaderIndex() int {
	if c.Reader == nil {
		return 0
	}
	return *c.Reader
}

// CLA returns the ENVELOPE class for the configured card class.
func (c CardConfig) CLA() (byte, error) {
	switch strings.ToUpper(strings.TrimSpace(c.Class)) {
	case "", "UICC":
		return iso7816.ClaUICCToolkit, nil
	case "GSM", "SIM":
		return iso7816.ClaGSM, nil
	default:
		return 0, fmt.Errorf("config.card.class %q is not UICC or GSM", c.Class)
	}
}

// FileCLA returns the class of SELECT and READ BINARY for the card class.
func (c CardConfig) FileCLA() byte {
	if cla, _ := c.CLA(); cla == iso7816.ClaGSM {
		return iso7816.ClaGSM
	}
	return iso7816.ClaUICC
}

func (c *Config) resolvePaths(configPath string) {
	configDir := filepath.Dir(configPath)
	c.Keys.CipherFile = resolvePath(configDir, c.Keys.CipherFile)
	c.Keys.SignatureFile = resolvePath(configDir, c.Keys.SignatureFile)
	c.Keys.MasterFile = resolvePath(configDir, c.Keys.MasterFile)
}

func resolvePath(baseDir, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Clean(filepath.Join(baseDir, trimmed))
}

func loadKey(inline, file, field string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	if inline != "" && file != "" {
		return nil, fmt.Errorf("%s and %s_file are exclusive", field, field)
	}

	src := inline
	if file != "" {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("%s_file: %w", field, err)
		}
		src = strings.TrimSpace(string(content))
	}
	if src == "" {
		return nil, nil
	}

	key, err := tlv.ParseHex(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return key, nil
}
