package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/btfind/internal/device"
	"github.com/srg/btfind/internal/groutine"
	"github.com/srg/btfind/internal/rfcomm"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect ADDRESS CHANNEL",
	Short: "Open an RFCOMM connection and pipe it to stdin/stdout",
	Long: `Connect to RFCOMM CHANNEL on the device at ADDRESS.

Bytes read from stdin are sent to the device and bytes received are written to
stdout until either side closes or Ctrl+C is pressed. Use "btfind services" to
find the channel of a service.`,
	Example: `  btfind connect 00:11:22:33:44:55 1`,
	Args:    cobra.ExactArgs(2),
	RunE:    runConnect,
}

var connectTimeout time.Duration

func init() {
	connectCmd.Flags().DurationVarP(&connectTimeout, "timeout", "t", 0, "Socket send/receive timeout (0 blocks)")
}

func runConnect(cmd *cobra.Command, args []string) error {
	address, err := device.ValidateAddress(args[0])
	if err != nil {
		return err
	}
	channel, err := strconv.Atoi(args[1])
	if err != nil || channel < 1 || channel > 30 {
		return fmt.Errorf("%w: %q (must be 1-30)", ErrInvalidChannel, args[1])
	}
	if connectTimeout < 0 {
		return fmt.Errorf("invalid timeout %s", connectTimeout)
	}

	_, logger, err := configureLogger(cmd)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	sock, err := rfcomm.NewSocket(rfcomm.RFCOMM, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sock.Close(); err != nil {
			logger.WithError(err).Debug("Failed to close socket")
		}
	}()

	if connectTimeout > 0 {
		if err := sock.SetTimeout(connectTimeout); err != nil {
			return fmt.Errorf("failed to set socket timeout: %w", err)
		}
	}
	if err := sock.Connect(rfcomm.Address{Addr: address, Channel: channel}); err != nil {
		return fmt.Errorf("failed to connect to %s channel %d: %w", address, channel, err)
	}
	logger.WithFields(logrus.Fields{"address": address, "channel": channel}).Info("Connected")

	ctx, cancel := interruptContext(cmd)
	defer cancel()

	return pipe(ctx, sock, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
}

// pipe copies in to conn and conn to out. It returns when the connection
// closes or ctx is done; the end of input alone keeps receiving.
func pipe(ctx context.Context, conn io.ReadWriter, in io.Reader, out io.Writer, logger *logrus.Logger) error {
	sendErr := make(chan error, 1)
	recvErr := make(chan error, 1)

	groutine.Go(ctx, "rfcomm-send", func(ctx context.Context) {
		_, err := io.Copy(conn, in)
		logger.WithError(err).Debug("Input closed")
		sendErr <- err
	})
	groutine.Go(ctx, "rfcomm-recv", func(ctx context.Context) {
		_, err := io.Copy(out, conn)
		logger.WithError(err).Debug("Connection closed")
		recvErr <- err
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sendErr:
			if err != nil {
				return fmt.Errorf("send failed: %w", err)
			}
			sendErr = nil
		case err := <-recvErr:
			return err
		}
	}
}
