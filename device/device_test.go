package device_test

import (
	"testing"

	"github.com/robertof/go-ble-central/central"
	"github.com/robertof/go-ble-central/device"
	"github.com/stretchr/testify/require"
)

func TestNewSpec(t *testing.T) {
	spec := device.NewSpec(" addr = 49:22:04:00:0A:1B , name=probe,garbage")

	require.Equal(t, "49:22:04:00:0A:1B", spec.Addr())
	require.Equal(t, "probe", spec.Name())
	require.Len(t, spec, 2)
}

func TestFromSpec(t *testing.T) {
	target, err := device.FromSpec(device.NewSpec("addr=49:22:04:00:0A:1B,name=probe"))
	require.NoError(t, err)

	require.Equal(t, "probe", target.Name)
	require.Equal(t, central.ID("49:22:04:00:0a:1b"), target.ID())
	require.Equal(t, "probe[49:22:04:00:0a:1b]", target.String())
}

func TestFromSpec_DefaultsNameToAddress(t *testing.T) {
	target, err := device.FromSpec(device.NewSpec("addr=49:22:04:00:0a:1b"))
	require.NoError(t, err)

	require.Equal(t, "49:22:04:00:0a:1b", target.Name)
}

func TestFromSpec_Invalid(t *testing.T) {
	_, err := device.FromSpec(device.NewSpec("name=probe"))
	require.ErrorIs(t, err, device.ErrMissingAddress)

	_, err = device.FromSpec(device.NewSpec("addr=not-a-mac"))
	require.ErrorIs(t, err, device.ErrInvalidAddress)

	// EUI-64 parses but is not a BLE address.
	_, err = device.FromSpec(device.NewSpec("addr=02:00:5e:10:00:00:00:01"))
	require.ErrorIs(t, err, device.ErrInvalidAddress)
}
