package mqtt

import (
	"fmt"
	"strings"

	"github.com/urmzd/nxbridge/pkg/device"
)

// Topics builds topic names under a common prefix.
type Topics struct {
	Prefix string
}

func (t Topics) base() string {
	return strings.Trim(t.Prefix, "/")
}

// Status is the retained online/offline topic; also the Last Will topic.
func (t Topics) Status() string {
	return t.base() + "/status"
}

// Command is where clients publish keypad commands.
func (t Topics) Command() string {
	return t.base() + "/command"
}

// Device is the retained snapshot topic of one zone or partition.
func (t Topics) Device(kind device.Kind, id int) string {
	return fmt.Sprintf("%s/%s/%d", t.base(), kind, id)
}

// Attribute is the retained topic of one status flag.
func (t Topics) Attribute(kind device.Kind, id int, attribute string) string {
	return fmt.Sprintf("%s/%s/%d/%s", t.base(), kind, id, attribute)
}
