package profile

import "errors"

// ErrConfiguration is matched by every error caused by an invalid profile or by a
// builder used before it was configured.
var ErrConfiguration = errors.New("configuration error")
