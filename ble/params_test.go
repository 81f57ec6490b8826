package ble

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnParams_Set(t *testing.T) {
	var p ConnParams

	require.NoError(t, p.Set(""))
	require.Equal(t, ConnParamsDefault, p)

	require.NoError(t, p.Set("power-saving"))
	require.Equal(t, ConnParamsPowerSaving, p)

	require.Error(t, p.Set("turbo"))
	require.Equal(t, ConnParamsPowerSaving, p)
}

func TestConnParams_AdapterOptions(t *testing.T) {
	def := ConnParamsDefault.AdapterOptions()
	require.EqualValues(t, 0x0006, def.ConnIntervalMax)

	ps := ConnParamsPowerSaving.AdapterOptions()

	// interval max * (latency + 1) <= 1/2 supervision timeout.
	interval := float64(ps.ConnIntervalMax) * 1.25
	supervision := float64(ps.SupervisionTimeout) * 10
	require.LessOrEqual(t, interval*float64(ps.ConnLatency+1), supervision/2)
}

func TestFlags_String(t *testing.T) {
	require.Equal(t, "none", Flags(0).String())
	require.Equal(t, "active scan, device allow-list", (FlagScanTypeActive | FlagEnableDeviceAllowList).String())
}
