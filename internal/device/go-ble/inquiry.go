package goble

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/btfind/internal/device"
	"github.com/srg/btfind/internal/groutine"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultInquiryLength is used when SetLength was never called.
const DefaultInquiryLength = 10 * time.Second

// Inquiry implements device.Inquiry as a time-bounded go-ble scan.
//
// With name updates enabled duplicate advertisements are processed, so names
// carried only in scan responses are picked up for devices already seen.
type Inquiry struct {
	host   *Host
	logger *logrus.Logger

	mu          sync.Mutex
	length      time.Duration
	updateNames bool
	running     bool
	stopped     bool
	cancel      context.CancelFunc
	found       *orderedmap.OrderedMap[string, *RemoteDevice]
}

func newInquiry(h *Host) *Inquiry {
	return &Inquiry{
		host:   h,
		logger: h.logger,
		length: DefaultInquiryLength,
		found:  orderedmap.New[string, *RemoteDevice](),
	}
}

func (i *Inquiry) SetLength(length time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.length = length
}

func (i *Inquiry) Length() time.Duration {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.length
}

func (i *Inquiry) SetUpdateNames(update bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.updateNames = update
}

func (i *Inquiry) UpdateNames() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.updateNames
}

// Start begins scanning and returns immediately. onComplete fires once the
// length elapsed, the scan failed, or Stop was called.
func (i *Inquiry) Start(onComplete device.InquiryCompleteFunc) device.Status {
	t, err := i.host.getTransport()
	if err != nil {
		i.logger.WithError(err).Debug("Failed to open transport")
		return device.StatusFromError(err)
	}

	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return device.StatusBusy
	}
	ctx, cancel := context.WithTimeout(context.Background(), i.length)
	i.running = true
	i.stopped = false
	i.cancel = cancel
	i.found = orderedmap.New[string, *RemoteDevice]()
	allowDup := i.updateNames
	i.mu.Unlock()

	groutine.Go(ctx, "inquiry", func(ctx context.Context) {
		err := t.Scan(ctx, allowDup, i.handleAdvertisement)
		cancel()

		i.mu.Lock()
		i.running = false
		aborted := i.stopped
		count := i.found.Len()
		i.mu.Unlock()

		status := inquiryStatus(err, aborted, count)
		i.logger.WithFields(logrus.Fields{
			"status":       status,
			"aborted":      aborted,
			"device_count": count,
		}).Debug("Inquiry finished")
		onComplete(status, aborted)
	})

	return device.StatusSuccess
}

// inquiryStatus maps the scan outcome onto a native status.
func inquiryStatus(err error, aborted bool, count int) device.Status {
	switch {
	case err == nil, errors.Is(err, context.DeadlineExceeded),
		aborted && errors.Is(err, context.Canceled):
		if count == 0 {
			return device.StatusNoDevicesFound
		}
		return device.StatusSuccess
	default:
		return device.StatusFromError(device.NormalizeError(err))
	}
}

func (i *Inquiry) handleAdvertisement(adv ble.Advertisement) {
	dev := i.host.remember(adv.Addr().String(), adv.LocalName())

	i.mu.Lock()
	defer i.mu.Unlock()
	if _, seen := i.found.Get(dev.Address()); !seen {
		i.found.Set(dev.Address(), dev)
		i.logger.WithFields(logrus.Fields{
			"address": dev.Address(),
			"name":    dev.Name(),
			"rssi":    adv.RSSI(),
		}).Info("Discovered new device")
	}
}

// Stop cancels a running inquiry; its completion reports aborted.
func (i *Inquiry) Stop() device.Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.running {
		return device.StatusSuccess
	}
	i.stopped = true
	i.cancel()
	return device.StatusSuccess
}

// FoundDevices returns the devices seen so far in discovery order.
func (i *Inquiry) FoundDevices() []device.RemoteDevice {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := make([]device.RemoteDevice, 0, i.found.Len())
	for pair := i.found.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}
