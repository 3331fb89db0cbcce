// Package console provides an interactive readline session for the panel.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urmzd/nxbridge/pkg/db"
	"github.com/urmzd/nxbridge/pkg/device"
)

// Console handles an interactive session against a panel controller.
type Console struct {
	controller device.Controller
	subscriber device.EventSubscriber
	labels     db.LabelStore
	rl         *readline.Instance
	out        io.Writer
}

// New creates a console reading from the terminal. labels may be nil.
func New(controller device.Controller, subscriber device.EventSubscriber, labels db.LabelStore) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "nx> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Console{
		controller: controller,
		subscriber: subscriber,
		labels:     labels,
		rl:         rl,
		out:        rl.Stdout(),
	}, nil
}

func completer() *readline.PrefixCompleter {
	kinds := func() []readline.PrefixCompleterInterface {
		return []readline.PrefixCompleterInterface{readline.PcItem("zone"), readline.PcItem("partition")}
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("list", kinds()...),
		readline.PcItem("show", kinds()...),
		readline.PcItem("query", kinds()...),
		readline.PcItem("send",
			readline.PcItem("stay"), readline.PcItem("partial"), readline.PcItem("on"),
			readline.PcItem("chime"), readline.PcItem("exit"), readline.PcItem("bypass"),
			readline.PcItem("cancel"), readline.PcItem("fire"), readline.PcItem("medical"),
			readline.PcItem("hold_up"),
		),
		readline.PcItem("quit"),
	)
}

// Stdout returns a writer that coordinates with the prompt.
// Use it for log output so lines do not overwrite the input.
func (c *Console) Stdout() io.Writer {
	return c.out
}

// Run reads commands until quit, EOF or ctx is done. Live events are
// printed as they arrive; if the event stream closes the session ends.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	events := c.subscriber.Subscribe()
	defer c.subscriber.Unsubscribe(events)
	go c.watch(ctx, cancel, events)

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			_, _ = fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if !c.exec(ctx, line) {
			cancel()
			return
		}
	}
}

func (c *Console) watch(ctx context.Context, cancel context.CancelFunc, events <-chan device.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				_, _ = fmt.Fprintln(c.out, "Panel link closed.")
				cancel()
				_ = c.rl.Close()
				return
			}
			_, _ = fmt.Fprintf(c.out, "[%s] %s %s\n", ev.Timestamp.Format("15:04:05"), c.name(ctx, ev.Kind, ev.ID), attrString(ev.Attribute, ev.Value))
		}
	}
}

// exec runs one input line and returns false when the session should end.
func (c *Console) exec(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "list", "ls":
		c.cmdList(ctx, args)

	case "show", "s":
		c.cmdShow(ctx, args)

	case "query", "q?":
		c.cmdQuery(ctx, args)

	case "send":
		if len(args) != 1 {
			_, _ = fmt.Fprintln(c.out, "Usage: send <command|code>")
			return true
		}
		c.cmdSend(ctx, args[0])

	case "quit", "q":
		_, _ = fmt.Fprintln(c.out, "Exiting...")
		return false

	default:
		// Bare function names and user codes are sent as-is.
		if len(parts) == 1 {
			c.cmdSend(ctx, parts[0])
			return true
		}
		_, _ = fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (c *Console) printHelp() {
	_, _ = fmt.Fprintln(c.out, `
Panel Commands:
  list [zone|partition]            - List devices and their active flags
  show <kind> <id>                 - Show every flag of one device
  query <kind> <id> <attribute>    - Show one flag
  send <command|code>              - Send a function key or user code

  Function keys: stay partial on chime exit bypass cancel fire medical hold_up
  (availability depends on the keymap). A bare key name or code is sent too.

  help                             - Show this help
  quit                             - Exit`)
}

func (c *Console) cmdList(ctx context.Context, args []string) {
	var kind device.Kind
	if len(args) > 0 {
		k, err := device.ParseKind(args[0])
		if err != nil {
			_, _ = fmt.Fprintf(c.out, "Error: %v\n", err)
			return
		}
		kind = k
	}

	devices, err := c.controller.ListDevices(ctx, kind)
	if err != nil {
		_, _ = fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}

	for _, d := range devices {
		var active []string
		unknown := 0
		for _, a := range d.Attributes {
			switch {
			case !a.Known:
				unknown++
			case a.Value:
				active = append(active, a.Name)
			}
		}

		summary := "-"
		if len(active) > 0 {
			summary = strings.Join(active, ",")
		}
		if unknown == len(d.Attributes) {
			summary = "(not reported)"
		}
		_, _ = fmt.Fprintf(c.out, "  %-24s %s\n", c.name(ctx, d.Kind, d.ID), summary)
	}
}

func (c *Console) cmdShow(ctx context.Context, args []string) {
	kind, id, ok := c.parseRef(args, 2, "show <kind> <id>")
	if !ok {
		return
	}

	d, err := c.controller.GetDevice(ctx, kind, id)
	if err != nil {
		_, _ = fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(c.out, c.name(ctx, kind, id))
	for _, a := range d.Attributes {
		_, _ = fmt.Fprintf(c.out, "  %-14s %s\n", a.Name, valueString(a))
	}
}

func (c *Console) cmdQuery(ctx context.Context, args []string) {
	kind, id, ok := c.parseRef(args, 3, "query <kind> <id> <attribute>")
	if !ok {
		return
	}

	a, err := c.controller.Query(ctx, kind, id, args[2])
	if err != nil {
		_, _ = fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	_, _ = fmt.Fprintf(c.out, "%s %s = %s\n", c.name(ctx, kind, id), a.Name, valueString(a))
}

func (c *Console) cmdSend(ctx context.Context, command string) {
	err := c.controller.SendCommand(ctx, command)
	switch {
	case err == nil:
		_, _ = fmt.Fprintln(c.out, "Sent.")
	case errors.Is(err, device.ErrInvalidCommand):
		_, _ = fmt.Fprintf(c.out, "Unknown command or code (type 'help' for commands)\n")
	default:
		_, _ = fmt.Fprintf(c.out, "Error: %v\n", err)
	}
}

func (c *Console) parseRef(args []string, n int, usage string) (device.Kind, int, bool) {
	if len(args) != n {
		_, _ = fmt.Fprintf(c.out, "Usage: %s\n", usage)
		return "", 0, false
	}
	kind, err := device.ParseKind(args[0])
	if err != nil {
		_, _ = fmt.Fprintf(c.out, "Error: %v\n", err)
		return "", 0, false
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		_, _ = fmt.Fprintf(c.out, "Invalid id: %s\n", args[1])
		return "", 0, false
	}
	return kind, id, true
}

// name renders a device as "zone 3 (Front door)".
func (c *Console) name(ctx context.Context, kind device.Kind, id int) string {
	ref := fmt.Sprintf("%s %d", kind, id)
	if c.labels == nil {
		return ref
	}
	l, err := c.labels.Get(ctx, kind, id)
	if err != nil || l.Name == db.DefaultLabel(kind, id) {
		return ref
	}
	return ref + " (" + l.Name + ")"
}

func valueString(a device.Attribute) string {
	if !a.Known {
		return "unknown"
	}
	if a.Changed.IsZero() {
		return strconv.FormatBool(a.Value)
	}
	return fmt.Sprintf("%t (since %s)", a.Value, a.Changed.Format("15:04:05"))
}

func attrString(name string, value bool) string {
	if value {
		return name + " ON"
	}
	return name + " off"
}
