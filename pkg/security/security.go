// Package security provides the cryptographic primitives of GSM 03.48 secured packets:
// a block cipher engine (DES, Triple DES and AES in CBC or ECB mode, zero IV, no padding)
// and a signature manager dispatching to the redundancy checks (CRC16, CRC32, XOR4, XOR8)
// and cryptographic checksums (ISO 9797-1 DES MAC, AES-CMAC truncated to 4 or 8 bytes).
//
// Algorithms are selected with the closed CipherKind and MacKind sets. The External kinds
// refer to caller-provided implementations registered by name on a Registry; there is no
// global provider state.
//
// Every MAC engine is a hash.Hash: Write feeds data, Sum returns the signature without
// disturbing the running state, Reset starts over and Size is the declared length.
package security
