package bluetooth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/btfind/internal/device"
	goble "github.com/srg/btfind/internal/device/go-ble"
	"github.com/srg/btfind/internal/discovery"
	"github.com/srg/btfind/pkg/config"
)

// nameRequestGrace is added to the page timeout when waiting for a name request.
const nameRequestGrace = time.Second

// ErrNameNotFound is returned when a remote name request yields no name.
var ErrNameNotFound = errors.New("could not find device name")

// HostFactory creates the native host used by NewDefaultFinder (can be overridden in tests)
var HostFactory = func(logger *logrus.Logger) (device.Host, error) {
	return goble.NewHost(logger)
}

// Finder performs blocking device and service discovery on a device.Host.
//
// A Finder runs at most one inquiry, one service query and one name request at
// a time; overlapping calls fail with a *discovery.ConcurrentOperationError.
type Finder struct {
	host   device.Host
	cfg    *config.Config
	logger *logrus.Logger

	inquiry *discovery.Adapter
	sdp     *discovery.Adapter
	names   *discovery.Adapter

	now func() time.Time
}

// ServiceQuery selects the services returned by FindServices.
// Zero values match everything; an empty Address searches all nearby devices.
type ServiceQuery struct {
	Address string
	Name    string
	UUID    uint16
}

// NewFinder creates a finder on host. nil cfg and logger use defaults.
func NewFinder(host device.Host, cfg *config.Config, logger *logrus.Logger) *Finder {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Finder{
		host:    host,
		cfg:     cfg,
		logger:  logger,
		inquiry: discovery.NewAdapter(logger),
		sdp:     discovery.NewAdapter(logger),
		names:   discovery.NewAdapter(logger),
		now:     time.Now,
	}
}

// NewDefaultFinder creates a finder on the platform host from HostFactory.
func NewDefaultFinder(cfg *config.Config, logger *logrus.Logger) (*Finder, error) {
	host, err := HostFactory(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create bluetooth host: %w", err)
	}
	return NewFinder(host, cfg, logger), nil
}

// FindDevices runs an inquiry for length (the configured default when
// length <= 0) and returns the found devices in discovery order.
// getNames asks the native layer to resolve names during the inquiry.
func (f *Finder) FindDevices(ctx context.Context, getNames bool, length time.Duration) ([]device.DeviceRecord, error) {
	if length <= 0 {
		length = f.cfg.InquiryLength
	}

	inq, err := f.host.NewInquiry()
	if err != nil {
		return nil, fmt.Errorf("failed to create device inquiry: %w", err)
	}
	op := discovery.NewDeviceInquiry(inq, getNames, length)

	f.logger.WithFields(logrus.Fields{
		"length":    length,
		"get_names": getNames,
	}).Info("Starting device inquiry...")

	if _, err := f.inquiry.Run(ctx, op, length+f.cfg.InquirySlack); err != nil {
		return nil, err
	}

	devices := op.Devices()
	f.logger.WithFields(logrus.Fields{
		"device_count": len(devices),
		"aborted":      op.Aborted(),
	}).Info("Device inquiry completed")
	return devices, nil
}

// FindServices returns the service records matching q.
//
// Without an address, an inquiry runs first and every found device is
// searched. Services are refreshed with a service query when the cached ones
// are older than the configured refresh interval; a failed refresh is logged
// and the cached services are used. A refresh that overlaps another service
// query on this finder fails with a *discovery.ConcurrentOperationError.
func (f *Finder) FindServices(ctx context.Context, q ServiceQuery) ([]device.ServiceRecord, error) {
	var addresses []string
	if q.Address == "" {
		found, err := f.FindDevices(ctx, true, 0)
		if err != nil {
			return nil, fmt.Errorf("find services failed, error while finding devices: %w", err)
		}
		for _, d := range found {
			addresses = append(addresses, d.Address)
		}
	} else {
		addresses = []string{q.Address}
	}

	services := make([]device.ServiceRecord, 0)
	for _, addr := range addresses {
		remote, err := f.host.DeviceWithAddress(addr)
		if err != nil {
			if q.Address != "" {
				return nil, fmt.Errorf("find services failed, failed to find %s: %w", addr, err)
			}
			f.logger.WithError(err).WithField("address", addr).Debug("Skipping device")
			continue
		}

		found, err := f.deviceServices(ctx, remote, q)
		if err != nil {
			return nil, err
		}
		services = append(services, found...)
	}
	return services, nil
}

func (f *Finder) deviceServices(ctx context.Context, remote device.RemoteDevice, q ServiceQuery) ([]device.ServiceRecord, error) {
	// The baseband connection sometimes stays open after a query.
	defer func() {
		if err := remote.CloseConnection(); err != nil {
			f.logger.WithError(err).WithField("device", remote.NameOrAddress()).Debug("Failed to close connection")
		}
	}()

	if f.servicesStale(remote) {
		if _, err := f.sdp.Run(ctx, discovery.NewServiceQuery(remote), f.cfg.SDPTimeout); err != nil {
			if ctx.Err() != nil || errors.Is(err, discovery.ErrConcurrentOperation) {
				return nil, err
			}
			f.logger.WithError(err).
				WithField("device", remote.NameOrAddress()).
				Warn("Couldn't get services, using cached services")
		}
	}

	var matched []device.ServiceRecord
	for _, s := range remote.Services() {
		if q.UUID != 0 && !s.HasServiceClass(q.UUID) {
			continue
		}
		if q.Name != "" && s.Name != q.Name {
			continue
		}
		s.Address = device.FormatAddress(s.Address)
		matched = append(matched, s)
	}
	return matched, nil
}

func (f *Finder) servicesStale(remote device.RemoteDevice) bool {
	last := remote.LastServicesUpdate()
	return last.IsZero() || f.now().Sub(last) > f.cfg.ServiceRefreshInterval
}

// FindDeviceName returns the name of the device at address, from the cache
// when useCache is set and a name is known, otherwise by a remote name request.
func (f *Finder) FindDeviceName(ctx context.Context, address string, useCache bool) (string, error) {
	addr, err := device.ValidateAddress(address)
	if err != nil {
		return "", err
	}

	remote, err := f.host.DeviceWithAddress(addr)
	if err != nil {
		return "", fmt.Errorf("%w for %s: %w", ErrNameNotFound, addr, err)
	}

	if useCache {
		if name := remote.Name(); name != "" {
			return name, nil
		}
	}

	req := discovery.NewNameRequest(remote, f.cfg.NameRequestTimeout)
	if _, err := f.names.Run(ctx, req, f.cfg.NameRequestTimeout+nameRequestGrace); err != nil {
		return "", fmt.Errorf("%w for %s: %w", ErrNameNotFound, addr, err)
	}
	name := remote.Name()
	if name == "" {
		return "", fmt.Errorf("%w for %s", ErrNameNotFound, addr)
	}
	return name, nil
}
