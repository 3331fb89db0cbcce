package nx587e

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urmzd/nxbridge/pkg/device"
)

// TestEncodeCommandKeymaps checks names that differ between keymaps.
func TestEncodeCommandKeymaps(t *testing.T) {
	t.Parallel()

	b, err := EncodeCommand("partial", KeymapAUNZ)
	require.NoError(t, err)
	require.Equal(t, "K", string(b))

	_, err = EncodeCommand("partial", KeymapUSA)
	require.ErrorIs(t, err, device.ErrInvalidCommand)

	b, err = EncodeCommand("stay", KeymapUSA)
	require.NoError(t, err)
	require.Equal(t, "K", string(b))

	_, err = EncodeCommand("stay", KeymapAUNZ)
	require.ErrorIs(t, err, device.ErrInvalidCommand)

	b, err = EncodeCommand("cancel", KeymapUSA)
	require.NoError(t, err)
	on, err := EncodeCommand("on", KeymapAUNZ)
	require.NoError(t, err)
	require.NotEqual(t, string(b), string(on))

	_, err = EncodeCommand("on", KeymapUSA)
	require.ErrorIs(t, err, device.ErrInvalidCommand)
}

// TestEncodeCommandShared checks keys present on both keymaps.
func TestEncodeCommandShared(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"chime", "exit", "bypass", "fire", "medical", "hold_up"} {
		usa, err := EncodeCommand(name, KeymapUSA)
		require.NoError(t, err, name)
		aunz, err := EncodeCommand(name, KeymapAUNZ)
		require.NoError(t, err, name)
		require.Equal(t, usa, aunz, name)
		require.Len(t, usa, 1, name)
	}
}

// TestEncodeCommandUserCodes passes 4 and 6 digit codes through unchanged.
func TestEncodeCommandUserCodes(t *testing.T) {
	t.Parallel()

	b, err := EncodeCommand("1234", KeymapUSA)
	require.NoError(t, err)
	require.Equal(t, "1234", string(b))

	b, err = EncodeCommand("987654", KeymapAUNZ)
	require.NoError(t, err)
	require.Equal(t, "987654", string(b))

	for _, bad := range []string{"123", "12345", "1234567", "12a4", ""} {
		_, err := EncodeCommand(bad, KeymapUSA)
		require.ErrorIs(t, err, device.ErrInvalidCommand, bad)
	}
}

// TestParseCommand is case insensitive and masks user codes when printed.
func TestParseCommand(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand("  Hold_Up ")
	require.NoError(t, err)
	require.Equal(t, CommandHoldUp, cmd)

	cmd, err = ParseCommand("4321")
	require.NoError(t, err)
	require.Equal(t, UserCode("4321"), cmd)
	require.Equal(t, "****", cmd.String())
}

// TestParseKeymap accepts only the two supported layouts.
func TestParseKeymap(t *testing.T) {
	t.Parallel()

	km, err := ParseKeymap("aunz")
	require.NoError(t, err)
	require.Equal(t, KeymapAUNZ, km)

	_, err = ParseKeymap("UK")
	require.ErrorIs(t, err, ErrInvalidKeymap)
}

// TestKeymapCommands lists the function keys per keymap.
func TestKeymapCommands(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]string{"stay", "chime", "exit", "bypass", "cancel", "fire", "medical", "hold_up"},
		KeymapUSA.Commands())
	require.Equal(t,
		[]string{"partial", "chime", "exit", "bypass", "on", "fire", "medical", "hold_up"},
		KeymapAUNZ.Commands())
}
