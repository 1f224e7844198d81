package shared

import "errors"

// ErrServiceKeyMissing occurs when the elevated-trust credential is absent.
var ErrServiceKeyMissing = errors.New("service key missing")
