package device

import "errors"

var ErrPoolClosed = errors.New("device pool closed")
