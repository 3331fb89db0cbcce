package nx587e

import (
	"fmt"
	"strings"

	"github.com/urmzd/nxbridge/pkg/device"
)

// Keymap selects the keypad layout the panel expects.
// The module presents itself as a US keypad; AU/NZ panels such as the
// Hills Reliance use a different set of function keys.
type Keymap string

const (
	KeymapUSA  Keymap = "USA"
	KeymapAUNZ Keymap = "AUNZ"
)

// DefaultSetup is the module option string sent once after priming.
const DefaultSetup = "T1"

// ParseKeymap validates a keymap name.
func ParseKeymap(s string) (Keymap, error) {
	switch Keymap(strings.ToUpper(strings.TrimSpace(s))) {
	case KeymapUSA:
		return KeymapUSA, nil
	case KeymapAUNZ:
		return KeymapAUNZ, nil
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidKeymap, s)
}

// Command is either a NamedCommand or a UserCode.
type Command interface {
	fmt.Stringer
	isCommand()
}

// NamedCommand is a keypad function key.
type NamedCommand int

const (
	CommandStay NamedCommand = iota + 1
	CommandPartial
	CommandChime
	CommandExit
	CommandBypass
	CommandCancel
	CommandOn
	CommandFire
	CommandMedical
	CommandHoldUp
)

var commandNames = map[NamedCommand]string{
	CommandStay:    "stay",
	CommandPartial: "partial",
	CommandChime:   "chime",
	CommandExit:    "exit",
	CommandBypass:  "bypass",
	CommandCancel:  "cancel",
	CommandOn:      "on",
	CommandFire:    "fire",
	CommandMedical: "medical",
	CommandHoldUp:  "hold_up",
}

func (c NamedCommand) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}

func (NamedCommand) isCommand() {}

// UserCode is a 4 or 6 digit code that arms or disarms the panel.
type UserCode string

// String masks the code so it can be logged.
func (c UserCode) String() string {
	return strings.Repeat("*", len(c))
}

func (UserCode) isCommand() {}

// keymaps maps each function key to the character the module expects.
var keymaps = map[Keymap]map[NamedCommand]byte{
	KeymapUSA: {
		CommandStay:    'K',
		CommandChime:   'L',
		CommandExit:    'M',
		CommandBypass:  'N',
		CommandCancel:  'O',
		CommandFire:    'P',
		CommandMedical: 'R',
		CommandHoldUp:  'T',
	},
	KeymapAUNZ: {
		CommandPartial: 'K',
		CommandChime:   'L',
		CommandExit:    'M',
		CommandBypass:  'N',
		CommandOn:      'S',
		CommandFire:    'P',
		CommandMedical: 'R',
		CommandHoldUp:  'T',
	},
}

// Commands returns the function key names available in km.
func (km Keymap) Commands() []string {
	var names []string
	for c := CommandStay; c <= CommandHoldUp; c++ {
		if _, ok := keymaps[km][c]; ok {
			names = append(names, c.String())
		}
	}
	return names
}

// ParseCommand turns user input into a Command without regard to keymap.
func ParseCommand(s string) (Command, error) {
	s = strings.TrimSpace(s)
	if isUserCode(s) {
		return UserCode(s), nil
	}
	name := strings.ToLower(s)
	for c, n := range commandNames {
		if n == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", device.ErrInvalidCommand, s)
}

// Encode returns the wire bytes for cmd under km.
func (km Keymap) Encode(cmd Command) ([]byte, error) {
	switch c := cmd.(type) {
	case UserCode:
		if !isUserCode(string(c)) {
			return nil, fmt.Errorf("%w: user code must be 4 or 6 digits", device.ErrInvalidCommand)
		}
		return []byte(c), nil
	case NamedCommand:
		table, ok := keymaps[km]
		if !ok {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidKeymap, string(km))
		}
		key, ok := table[c]
		if !ok {
			return nil, fmt.Errorf("%w: %q is not available on the %s keymap", device.ErrInvalidCommand, c, km)
		}
		return []byte{key}, nil
	}
	return nil, fmt.Errorf("%w: %v", device.ErrInvalidCommand, cmd)
}

// EncodeCommand parses and encodes a command name or user code in one step.
func EncodeCommand(s string, km Keymap) ([]byte, error) {
	cmd, err := ParseCommand(s)
	if err != nil {
		return nil, err
	}
	return km.Encode(cmd)
}

func isUserCode(s string) bool {
	if len(s) != 4 && len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
