package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	evdev "github.com/gvalkov/golang-evdev"
	"golang.org/x/term"

	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/bridge"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/discovery"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/envision"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/log"
)

type Diag struct {
	Device   string `help:"Stream a specific event node instead of the discovered primary" type:"path"`
	Grab     bool   `help:"Take exclusive access while streaming (other readers see nothing)"`
	ScanOnly bool   `help:"Only print discovery results, do not stream events"`
}

// Run is called by Kong when the diag command is executed.
func (d *Diag) Run(logger *slog.Logger, events log.EventLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := d.Device
	if path == "" {
		enum := discovery.NewSysfsEnumerator()
		disc, err := discovery.Discover(enum, logger)
		if err != nil {
			if errors.Is(err, discovery.ErrNotFound) {
				fmt.Println("No SCUF Envision Pro V2 controller found.")
				fmt.Printf("Expected USB IDs %04x:%04x (wired) or %04x:%04x (receiver).\n",
					envision.VendorID, envision.ProductIDWired, envision.VendorID, envision.ProductIDReceiver)
			}
			return err
		}
		printScan(disc)
		if d.ScanOnly {
			return nil
		}
		path = disc.Primary.EventPath
	}

	dev, err := bridge.OpenPhysical(path)
	if err != nil {
		return err
	}
	defer func() { _ = dev.Close() }()
	if d.Grab {
		if err := dev.Grab(); err != nil {
			return err
		}
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Printf("Streaming events from %s. Press buttons and move sticks; Ctrl-C to stop.\n\n", path)
	}
	return d.stream(ctx, dev, events)
}

func (d *Diag) stream(ctx context.Context, dev bridge.Device, events log.EventLogger) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		ready, err := dev.Wait(250 * time.Millisecond)
		if err != nil {
			return err
		}
		if !ready {
			continue
		}
		evs, err := dev.ReadEvents()
		if err != nil {
			fmt.Println("Device went away.")
			return nil
		}
		for _, ev := range evs {
			events.Event("diag", ev.Type, ev.Code, ev.Value)
			printEvent(ev)
		}
	}
}

func printScan(disc *discovery.Discovered) {
	fmt.Printf("Controller: %s (%s)\n", disc.Primary.Name, disc.Connection)
	fmt.Printf("  primary event node:  %s (%d axes, %d keys)", disc.Primary.EventPath,
		len(disc.Primary.AbsCodes), len(disc.Primary.KeyCodes))
	if disc.Primary.HasJoystickHandler {
		fmt.Print("  [joystick handler]")
	}
	fmt.Println()
	for _, sec := range disc.Secondary {
		fmt.Printf("  secondary node:      %s (%s, %d axes, %d keys)\n",
			sec.EventPath, sec.Name, len(sec.AbsCodes), len(sec.KeyCodes))
	}
	if disc.HidrawPath != "" {
		fmt.Printf("  hidraw node:         %s\n", disc.HidrawPath)
	}
	fmt.Println()
}

func printEvent(ev bridge.Event) {
	switch ev.Type {
	case evdev.EV_KEY:
		canonical, ok := envision.ButtonMap[ev.Code]
		if !ok {
			canonical, ok = envision.PaddleMap[ev.Code]
		}
		target := "dropped (unmapped)"
		if ok {
			target = envision.CanonicalButtonName(canonical)
		}
		fmt.Printf("KEY  %-24s 0x%03x -> %-20s value=%d\n",
			envision.PhysicalButtonName(ev.Code), ev.Code, target, ev.Value)
	case evdev.EV_ABS:
		canonical, ok := envision.AxisMap[ev.Code]
		target := "dropped (unmapped)"
		if ok {
			target = envision.CanonicalAxisName(canonical)
		}
		fmt.Printf("ABS  %-24s 0x%03x -> %-20s value=%d\n",
			envision.PhysicalAxisName(ev.Code), ev.Code, target, ev.Value)
	case evdev.EV_SYN:
		// Frame boundaries are noise at human reading speed.
	default:
		fmt.Printf("EV   type=0x%02x code=0x%03x value=%d\n", ev.Type, ev.Code, ev.Value)
	}
}
