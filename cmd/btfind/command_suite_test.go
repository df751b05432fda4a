package main

import (
	"bytes"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/srg/btfind/internal/device"
	"github.com/srg/btfind/internal/testutils"
	"github.com/srg/btfind/pkg/bluetooth"
	"github.com/stretchr/testify/suite"
)

// Test device addresses for consistent fake device identification
const (
	TestDeviceAddress1 = "00:00:00:00:00:01"
	TestDeviceAddress2 = "00:00:00:00:00:02"
)

// CommandTestSuite runs btfind commands against a fake host.
// All cmd/btfind test suites embed it.
type CommandTestSuite struct {
	suite.Suite

	Host *testutils.FakeHost

	originalHostFactory func(*logrus.Logger) (device.Host, error)
	originalStdinTTY    func() bool
	originalStderrTTY   func() bool
}

func (s *CommandTestSuite) SetupTest() {
	s.originalHostFactory = bluetooth.HostFactory
	s.originalStdinTTY = stdinIsTerminal
	s.originalStderrTTY = stderrIsTerminal

	s.UseHost(testutils.NewHostBuilder().
		WithDevice(TestDeviceAddress1, "Phone", 0x5a020c).
		WithService("Serial Port", testutils.RFCOMMChannel(1), 0x1101).
		WithService("Handsfree Gateway", testutils.RFCOMMChannel(3), 0x111f, 0x1203).
		WithDevice(TestDeviceAddress2, "", 0x240404).
		WithService("Headset", testutils.RFCOMMChannel(2), 0x1108).
		Build())

	stdinIsTerminal = func() bool { return true }
	stderrIsTerminal = func() bool { return false }

	resetCommandFlags(rootCmd)
}

func (s *CommandTestSuite) TearDownTest() {
	bluetooth.HostFactory = s.originalHostFactory
	stdinIsTerminal = s.originalStdinTTY
	stderrIsTerminal = s.originalStderrTTY
	rootCmd.SetIn(nil)
}

// UseHost makes new finders run on host.
func (s *CommandTestSuite) UseHost(host *testutils.FakeHost) {
	s.Host = host
	bluetooth.HostFactory = func(*logrus.Logger) (device.Host, error) {
		return host, nil
	}
}

// ExecuteCommand runs btfind with args, returning stdout and stderr separately.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, string, error) {
	return s.ExecuteCommandWithInput("", args...)
}

// ExecuteCommandWithInput is ExecuteCommand with stdin fed from input.
func (s *CommandTestSuite) ExecuteCommandWithInput(input string, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(io.Reader(strings.NewReader(input)))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// resetCommandFlags restores every flag of cmd and its children to its default
// so state does not leak between tests.
func resetCommandFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetCommandFlags(child)
	}
}
