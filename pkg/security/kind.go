package security

import (
	"fmt"
	"strings"
)

// CipherKind is the closed set of block ciphers the engine knows natively.
// CipherExternal designates a cipher registered by name on a CipherEngine.
type CipherKind int

const (
	CipherUnknown CipherKind = iota
	CipherDESCBC
	CipherDESECB
	CipherTripleDESCBC
	CipherTripleDESECB
	CipherAESCBC
	CipherAESECB
	CipherExternal
)

var cipherTokens = map[CipherKind]string{
	CipherDESCBC:       "DES/CBC",
	CipherDESECB:       "DES/ECB",
	CipherTripleDESCBC: "DESede/CBC",
	CipherTripleDESECB: "DESede/ECB",
	CipherAESCBC:       "AES/CBC",
	CipherAESECB:       "AES/ECB",
}

// CipherAlgorithm selects a cipher. Name is only meaningful for CipherExternal.
type CipherAlgorithm struct {
	Kind CipherKind
	Name string
}

// Cipher returns the algorithm for a native kind.
func Cipher(kind CipherKind) CipherAlgorithm {
	return CipherAlgorithm{Kind: kind}
}

// ParseCipher maps a transformation name such as "DES/CBC" or "AES/CBC/NoPadding"
// to a native kind. Any other non-empty name is kept as an external cipher.
func ParseCipher(name string) (CipherAlgorithm, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return CipherAlgorithm{}, cryptoErrorf("empty cipher name")
	}

	normalized := strings.TrimSuffix(strings.ToUpper(trimmed), "/NOPADDING")
	for kind, token := range cipherTokens {
		if strings.ToUpper(token) == normalized {
			return Cipher(kind), nil
		}
	}
	return CipherAlgorithm{Kind: CipherExternal, Name: trimmed}, nil
}

func (a CipherAlgorithm) String() string {
	if a.Kind == CipherExternal {
		return a.Name
	}
	if token, ok := cipherTokens[a.Kind]; ok {
		return token
	}
	return fmt.Sprintf("CipherKind(%d)", int(a.Kind))
}

func (a CipherAlgorithm) isCBC() bool {
	return a.Kind == CipherDESCBC || a.Kind == CipherTripleDESCBC || a.Kind == CipherAESCBC
}

// MacKind is the closed set of integrity algorithms the signature manager knows natively.
// MacExternal designates a MAC registered by name on a SignatureManager.
type MacKind int

const (
	MacUnknown MacKind = iota
	MacDES
	MacTripleDES
	MacCRC16
	MacCRC32
	MacXOR4
	MacXOR8
	MacAESCMAC32
	MacAESCMAC64
	MacExternal
)

// Tokens used in profiles to name a signature algorithm.
const (
	DESMAC8ISO9797M1 = "DES_MAC8_ISO9797_M1"
	DESEDEMAC64      = "DESEDEMAC64"
	CRC16            = "CRC16"
	CRC32            = "CRC32"
	XOR4             = "XOR4"
	XOR8             = "XOR8"
	AESCMAC32        = "AES_CMAC_32"
	AESCMAC64        = "AES_CMAC_64"
)

var macTokens = map[MacKind]string{
	MacDES:       DESMAC8ISO9797M1,
	MacTripleDES: DESEDEMAC64,
	MacCRC16:     CRC16,
	MacCRC32:     CRC32,
	MacXOR4:      XOR4,
	MacXOR8:      XOR8,
	MacAESCMAC32: AESCMAC32,
	MacAESCMAC64: AESCMAC64,
}

// macLengths is the declared signature length of every native MAC.
var macLengths = map[MacKind]int{
	MacDES:       8,
	MacTripleDES: 8,
	MacCRC16:     2,
	MacCRC32:     4,
	MacXOR4:      4,
	MacXOR8:      8,
	MacAESCMAC32: 4,
	MacAESCMAC64: 8,
}

// MacAlgorithm selects a MAC. Name is only meaningful for MacExternal.
type MacAlgorithm struct {
	Kind MacKind
	Name string
}

// Mac returns the algorithm for a native kind.
func Mac(kind MacKind) MacAlgorithm {
	return MacAlgorithm{Kind: kind}
}

// ParseMac maps a signature token such as "AES_CMAC_64" to a native kind.
// Any other non-empty name is kept as an external MAC.
func ParseMac(name string) (MacAlgorithm, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return MacAlgorithm{}, cryptoErrorf("empty signature algorithm name")
	}

	for kind, token := range macTokens {
		if strings.EqualFold(token, trimmed) {
			return Mac(kind), nil
		}
	}
	return MacAlgorithm{Kind: MacExternal, Name: trimmed}, nil
}

func (a MacAlgorithm) String() string {
	if a.Kind == MacExternal {
		return a.Name
	}
	if token, ok := macTokens[a.Kind]; ok {
		return token
	}
	return fmt.Sprintf("MacKind(%d)", int(a.Kind))
}
