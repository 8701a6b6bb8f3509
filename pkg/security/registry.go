package security

// Registry bundles the cipher engine and the signature manager used by one packet builder.
// Each registry owns its external registrations; nothing is shared between instances.
type Registry struct {
	Ciphers    *CipherEngine
	Signatures *SignatureManager
}

// NewRegistry returns a registry holding only the native algorithms.
func NewRegistry() *Registry {
	return &Registry{
		Ciphers:    NewCipherEngine(),
		Signatures: NewSignatureManager(),
	}
}
