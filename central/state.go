package central

import (
	"errors"
	"strconv"
)

// State is the power/permission status reported by the radio.
type State uint8

const (
	StateUnknown State = iota
	StateResetting
	StateUnsupported
	StateUnauthorized
	StatePoweredOff
	StatePoweredOn
)

var (
	ErrPoweredOff   = errors.New("bluetooth radio is powered off")
	ErrUnauthorized = errors.New("bluetooth use is not authorized")
	ErrUnsupported  = errors.New("bluetooth low energy is not supported")
	ErrNotReady     = errors.New("bluetooth radio state is not resolved yet")
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "Unknown"
	case StateResetting:
		return "Resetting"
	case StateUnsupported:
		return "Unsupported"
	case StateUnauthorized:
		return "Unauthorized"
	case StatePoweredOff:
		return "PoweredOff"
	case StatePoweredOn:
		return "PoweredOn"
	default:
		panic("unknown radio state: " + strconv.Itoa(int(s)))
	}
}

// readiness classifies s. resolved is false while the radio may still settle
// on its own (unknown, resetting); err is nil only for a powered-on radio.
func (s State) readiness() (resolved bool, err error) {
	switch s {
	case StatePoweredOn:
		return true, nil
	case StatePoweredOff:
		return true, ErrPoweredOff
	case StateUnauthorized:
		return true, ErrUnauthorized
	case StateUnsupported:
		return true, ErrUnsupported
	default:
		return false, nil
	}
}
