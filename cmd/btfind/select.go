package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/srg/btfind/internal/picker"
	"github.com/srg/btfind/pkg/bluetooth"
	"golang.org/x/term"
)

// selectCmd represents the select command
var selectCmd = &cobra.Command{
	Use:       "select [device|service]",
	Short:     "Pick a nearby device or service interactively",
	Long:      `Discover devices (or their services), let you pick one, and print the choice as JSON.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"device", "service"},
	RunE:      runSelect,
}

func runSelect(cmd *cobra.Command, args []string) error {
	kind := "device"
	if len(args) == 1 {
		kind = args[0]
	}
	if !stdinIsTerminal() {
		return ErrNotInteractive
	}

	finder, _, err := newFinder(cmd)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	ctx, cancel := interruptContext(cmd)
	defer cancel()

	colors := term.IsTerminal(int(os.Stdout.Fd()))
	p := picker.New(cmd.InOrStdin(), cmd.OutOrStdout(), colors)

	var choice any
	switch kind {
	case "service":
		stop := startProgress(cmd.ErrOrStderr(), "Discovering services", 0)
		svc, err := finder.SelectService(ctx, &stoppingChooser{stop: stop, picker: p})
		stop()
		if err != nil {
			return err
		}
		if svc != nil {
			choice = bluetooth.NewService(*svc)
		}
	default:
		stop := startProgress(cmd.ErrOrStderr(), "Discovering devices", 0)
		dev, err := finder.SelectDevice(ctx, &stoppingChooser{stop: stop, picker: p})
		stop()
		if err != nil {
			return err
		}
		if dev != nil {
			choice = dev
		}
	}

	if choice == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Selection cancelled")
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), choice)
}
