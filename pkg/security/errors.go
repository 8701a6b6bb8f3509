package security

import "github.com/pkg/errors"

// ErrCrypto is the kind of every failure raised by a cipher or MAC engine:
// bad key length, misaligned input or an algorithm nobody registered.
var ErrCrypto = errors.New("crypto error")

func cryptoErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrCrypto, format, args...)
}

func wrapCrypto(err error, format string, args ...interface{}) error {
	return errors.Wrapf(ErrCrypto, format+": %v", append(args, err)...)
}
