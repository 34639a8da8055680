package services

import "errors"

// ErrUnavailable is returned by operations whose backing component was not
// configured.
var ErrUnavailable = errors.New("operation not available in this deployment")
