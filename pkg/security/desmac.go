package security

import (
	"crypto/cipher"
	"crypto/des"
	"hash"
)

// ISO/IEC 9797-1 MAC algorithm 1 with padding method 1:
//   - the data is right-padded with zero bytes up to a positive multiple of 8,
//   - every block is chained through DES (or Triple DES) in CBC mode from a zero IV,
//   - the MAC is the last output block, 8 bytes.
//
// An 8-byte key selects single DES, a 16 or 24-byte key selects Triple DES.

type desMAC struct {
	block   cipher.Block
	state   [des.BlockSize]byte
	pending []byte
	written int
}

func newDESMAC(key []byte) (hash.Hash, error) {
	var (
		block cipher.Block
		err   error
	)

	switch len(key) {
	case 8:
		block, err = des.NewCipher(key)
	case 16, 24:
		block, err = newTripleDES(key)
	default:
		return nil, cryptoErrorf("DES MAC key must be 8, 16 or 24 bytes, got %d", len(key))
	}
	if err != nil {
		return nil, wrapCrypto(err, "DES MAC key")
	}

	return &desMAC{block: block}, nil
}

func (d *desMAC) Write(p []byte) (int, error) {
	d.written += len(p)
	d.pending = append(d.pending, p...)

	for len(d.pending) >= des.BlockSize {
		d.chain(&d.state, d.pending[:des.BlockSize])
		d.pending = d.pending[des.BlockSize:]
	}
	return len(p), nil
}

// Sum appends the MAC to b without changing the running state.
func (d *desMAC) Sum(b []byte) []byte {
	state := d.state
	if len(d.pending) > 0 || d.written == 0 {
		var last [des.BlockSize]byte
		copy(last[:], d.pending)
		d.chain(&state, last[:])
	}
	return append(b, state[:]...)
}

func (d *desMAC) chain(state *[des.BlockSize]byte, blk []byte) {
	for i := range state {
		state[i] ^= blk[i]
	}
	d.block.Encrypt(state[:], state[:])
}

func (d *desMAC) Reset() {
	d.state = [des.BlockSize]byte{}
	d.pending = nil
	d.written = 0
}

func (d *desMAC) Size() int      { return des.BlockSize }
func (d *desMAC) BlockSize() int { return des.BlockSize }
