package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/srg/btfind/internal/device"
	"github.com/srg/btfind/pkg/bluetooth"
)

// servicesCmd represents the services command
var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Find services offered by nearby devices",
	Long: `Look up services by device address, service name and service class UUID.

Without --address a device inquiry runs first and every device found is
queried. Cached services are reused when they are recent enough.`,
	Example: `  btfind services --address 00:11:22:33:44:55
  btfind services --uuid 0x1101 --format json`,
	Args: cobra.NoArgs,
	RunE: runServices,
}

var (
	servicesAddress string
	servicesName    string
	servicesUUID    string
)

func init() {
	servicesCmd.Flags().StringVarP(&servicesAddress, "address", "a", "", "Device address (default: all nearby devices)")
	servicesCmd.Flags().StringVar(&servicesName, "name", "", "Service name to match")
	servicesCmd.Flags().StringVarP(&servicesUUID, "uuid", "u", "", "16-bit service class UUID to match, e.g. 0x1101")
	servicesCmd.Flags().StringP("format", "f", "table", "Output format (table, json)")
}

func runServices(cmd *cobra.Command, _ []string) error {
	var uuid uint16
	if servicesUUID != "" {
		var err error
		if uuid, err = device.ParseUUID16(servicesUUID); err != nil {
			return fmt.Errorf("invalid service UUID: %w", err)
		}
	}
	address := device.FormatAddress(servicesAddress)

	finder, cfg, err := newFinder(cmd)
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd, cfg)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	ctx, cancel := interruptContext(cmd)
	defer cancel()

	var stop func()
	if address == "" {
		stop = startProgress(cmd.ErrOrStderr(), "Discovering devices", cfg.InquiryLength)
	} else {
		stop = startProgress(cmd.ErrOrStderr(), "Querying services", 0)
	}
	services, err := finder.FindService(ctx, servicesName, uuid, address)
	stop()
	if err != nil {
		return err
	}

	if format == "json" {
		return writeJSON(cmd.OutOrStdout(), services)
	}
	return writeServicesTable(cmd.OutOrStdout(), services)
}

func writeServicesTable(out io.Writer, services []bluetooth.Service) error {
	if len(services) == 0 {
		fmt.Fprintln(out, "No services found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HOST\tPORT\tNAME\tSERVICE CLASSES")
	for _, s := range services {
		port := "-"
		if s.Port != nil {
			port = strconv.Itoa(*s.Port)
		}
		name := s.Name
		if name == "" {
			name = "-"
		}
		classes := make([]string, 0, len(s.ServiceClasses))
		for _, c := range s.ServiceClasses {
			classes = append(classes, fmt.Sprint(c))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Host, port, name, strings.Join(classes, ","))
	}
	return w.Flush()
}
