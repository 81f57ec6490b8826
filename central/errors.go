package central

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyScanning      = errors.New("a scan is already in progress")
	ErrConnectInProgress    = errors.New("a connection attempt is already in progress")
	ErrDisconnectInProgress = errors.New("a disconnection is already in progress")
	ErrNoConnection         = errors.New("no connection exists")
)

// ConnectError is returned by Connect when the controller reports a failed
// attempt. Reason is whatever the controller handed over.
type ConnectError struct {
	ID     ID
	Reason error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %v: %v", e.ID, e.Reason)
}

func (e *ConnectError) Unwrap() error {
	return e.Reason
}
