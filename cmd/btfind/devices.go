package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/btfind/pkg/bluetooth"
)

// devicesCmd represents the devices command
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Discover nearby Bluetooth devices",
	Long: `Run a device inquiry and list the devices that answered.

Devices are listed in the order they were discovered. Use --names to resolve
device names during the inquiry and --class to show the class of device.`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

var (
	devicesDuration time.Duration
	devicesNames    bool
	devicesClass    bool
)

func init() {
	devicesCmd.Flags().DurationVarP(&devicesDuration, "duration", "d", 0, "Inquiry length (default from config, 8s)")
	devicesCmd.Flags().BoolVarP(&devicesNames, "names", "n", false, "Resolve device names")
	devicesCmd.Flags().BoolVarP(&devicesClass, "class", "c", false, "Show class of device")
	devicesCmd.Flags().StringP("format", "f", "table", "Output format (table, json)")
}

func runDevices(cmd *cobra.Command, _ []string) error {
	finder, cfg, err := newFinder(cmd)
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd, cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, cancel := interruptContext(cmd)
	defer cancel()

	length := devicesDuration
	if length <= 0 {
		length = cfg.InquiryLength
	}
	stop := startProgress(cmd.ErrOrStderr(), "Discovering devices", length)
	devices, err := finder.DiscoverDevices(ctx, bluetooth.DiscoverOptions{
		Duration:    length,
		LookupNames: devicesNames,
		LookupClass: devicesClass,
	})
	stop()
	if err != nil {
		return err
	}

	if format == "json" {
		return writeJSON(cmd.OutOrStdout(), devices)
	}
	return writeDevicesTable(cmd.OutOrStdout(), devices, devicesNames, devicesClass)
}

func writeDevicesTable(out io.Writer, devices []bluetooth.DiscoveredDevice, names, class bool) error {
	if len(devices) == 0 {
		fmt.Fprintln(out, "No devices discovered")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := []string{"ADDRESS"}
	if names {
		header = append(header, "NAME")
	}
	if class {
		header = append(header, "CLASS")
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, d := range devices {
		row := []string{d.Address}
		if names {
			name := "-"
			if d.Name != nil {
				name = *d.Name
			}
			row = append(row, name)
		}
		if class {
			c := "-"
			if d.Class != nil {
				c = fmt.Sprintf("0x%06X", *d.Class)
			}
			row = append(row, c)
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
