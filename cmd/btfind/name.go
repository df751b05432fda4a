package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/srg/btfind/internal/device"
)

// nameCmd represents the name command
var nameCmd = &cobra.Command{
	Use:   "name ADDRESS",
	Short: "Look up the name of a device",
	Long: `Print the name of the device at ADDRESS.

A name already known from an earlier inquiry is used unless --no-cache is
given, in which case a remote name request is always made.`,
	Args: cobra.ExactArgs(1),
	RunE: runName,
}

var nameNoCache bool

func init() {
	nameCmd.Flags().BoolVar(&nameNoCache, "no-cache", false, "Always ask the device for its name")
}

func runName(cmd *cobra.Command, args []string) error {
	address, err := device.ValidateAddress(args[0])
	if err != nil {
		return err
	}

	finder, _, err := newFinder(cmd)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	ctx, cancel := interruptContext(cmd)
	defer cancel()

	name, err := finder.FindDeviceName(ctx, address, !nameNoCache)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}
