package device

import (
	"errors"
	"fmt"
	"net"

	pkgerrors "github.com/pkg/errors"
	"github.com/robertof/go-ble-central/central"
)

var (
	ErrMissingAddress = errors.New("missing address")
	ErrInvalidAddress = errors.New("invalid address")
)

// Target is a peripheral the user asked to connect to.
type Target struct {
	Name string
	Addr net.HardwareAddr
}

func FromSpec(spec Spec) (Target, error) {
	if spec.Addr() == "" {
		return Target{}, pkgerrors.Wrapf(ErrMissingAddress, "spec %v", map[string]string(spec))
	}

	addr, err := net.ParseMAC(spec.Addr())

	if err != nil || len(addr) != 6 {
		return Target{}, pkgerrors.Wrapf(ErrInvalidAddress, "%q is not a 6 byte MAC address", spec.Addr())
	}

	name := spec.Name()

	if name == "" {
		name = addr.String()
	}

	return Target{
		Name: name,
		Addr: addr,
	}, nil
}

// ID is the identifier the radio backend uses for this target.
func (t Target) ID() central.ID {
	return central.ID(t.Addr.String())
}

func (t Target) String() string {
	return fmt.Sprintf("%s[%s]", t.Name, t.Addr)
}

func Help() string {
	return fmt.Sprintf(
		"Required: '%s' (MAC address, e.g. 49:22:04:00:0a:1b). Optional: '%s' (label used in logs).",
		SpecFieldAddress,
		SpecFieldName,
	)
}
