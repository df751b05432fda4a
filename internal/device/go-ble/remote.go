package goble

import (
	"context"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/btfind/internal/device"
	"github.com/srg/btfind/internal/groutine"
)

// DefaultQueryTimeout bounds a service query on the backend side, so an
// abandoned query cannot hold the device forever.
const DefaultQueryTimeout = 30 * time.Second

// RemoteDevice implements device.RemoteDevice for a go-ble peer.
// Service queries connect over GATT and report each primary service as a record.
type RemoteDevice struct {
	host    *Host
	address string
	logger  *logrus.Logger

	mu         sync.RWMutex
	name       string
	services   []device.ServiceRecord
	lastUpdate time.Time
	client     ble.Client
	querying   bool
	naming     bool
}

func newRemoteDevice(h *Host, address string) *RemoteDevice {
	return &RemoteDevice{
		host:    h,
		address: address,
		logger:  h.logger,
	}
}

func (d *RemoteDevice) Address() string {
	return d.address
}

func (d *RemoteDevice) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.name
}

func (d *RemoteDevice) setName(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.name = name
}

func (d *RemoteDevice) NameOrAddress() string {
	if name := d.Name(); name != "" {
		return name
	}
	return d.address
}

// ClassOfDevice is always 0: LE advertisements carry no class of device.
func (d *RemoteDevice) ClassOfDevice() uint32 {
	return 0
}

func (d *RemoteDevice) LastServicesUpdate() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastUpdate
}

func (d *RemoteDevice) Services() []device.ServiceRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]device.ServiceRecord(nil), d.services...)
}

func (d *RemoteDevice) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.client != nil
}

// CloseConnection drops the GATT connection left by a service query.
func (d *RemoteDevice) CloseConnection() error {
	d.mu.Lock()
	client := d.client
	d.client = nil
	d.mu.Unlock()

	if client == nil {
		return nil
	}
	return device.NormalizeError(client.CancelConnection())
}

// PerformSDPQuery connects, discovers the GATT profile, and replaces the
// cached services. Returns StatusBusy while a previous query runs.
func (d *RemoteDevice) PerformSDPQuery(onComplete device.CompleteFunc) device.Status {
	t, err := d.host.getTransport()
	if err != nil {
		return device.StatusFromError(err)
	}

	d.mu.Lock()
	if d.querying {
		d.mu.Unlock()
		return device.StatusBusy
	}
	d.querying = true
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultQueryTimeout)
	groutine.Go(ctx, "service-query", func(ctx context.Context) {
		defer cancel()
		status := d.query(ctx, t)

		d.mu.Lock()
		d.querying = false
		d.mu.Unlock()

		onComplete(status)
	})
	return device.StatusSuccess
}

func (d *RemoteDevice) query(ctx context.Context, t Transport) device.Status {
	log := d.logger.WithField("address", d.address)

	client, err := d.connectedClient(ctx, t)
	if err != nil {
		log.WithError(err).Debug("Service query connect failed")
		return device.StatusFromError(err)
	}

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		log.WithError(err).Debug("Service discovery failed")
		return device.StatusFromError(device.NormalizeError(err))
	}

	records := servicesFromProfile(d.address, profile)

	d.mu.Lock()
	d.services = records
	d.lastUpdate = time.Now()
	d.mu.Unlock()

	log.WithField("service_count", len(records)).Debug("Service query completed")
	return device.StatusSuccess
}

// connectedClient reuses an open connection or dials a new one.
func (d *RemoteDevice) connectedClient(ctx context.Context, t Transport) (ble.Client, error) {
	d.mu.RLock()
	client := d.client
	d.mu.RUnlock()
	if client != nil {
		return client, nil
	}

	client, err := t.Dial(ctx, ble.NewAddr(d.address))
	if err != nil {
		return nil, device.NormalizeError(err)
	}

	d.mu.Lock()
	d.client = client
	d.mu.Unlock()
	return client, nil
}

// servicesFromProfile converts GATT services to service records.
// GATT services are reached over the fixed ATT channel, so Channel stays nil.
func servicesFromProfile(address string, profile *ble.Profile) []device.ServiceRecord {
	if profile == nil {
		return nil
	}

	records := make([]device.ServiceRecord, 0, len(profile.Services))
	for _, svc := range profile.Services {
		uuid := device.NormalizeUUID(svc.UUID.String())
		name := device.KnownServiceName(uuid)

		attrs := map[device.AttributeID]any{
			device.ServiceClassIDListAttr: []string{uuid},
		}
		if name != "" {
			attrs[device.ServiceNameAttr] = name
		}

		records = append(records, device.ServiceRecord{
			Address:    device.FormatAddress(address),
			Name:       name,
			Attributes: attrs,
		})
	}
	return records
}

// RemoteNameRequest scans for an advertisement from this device carrying a
// local name, for at most pageTimeout.
func (d *RemoteDevice) RemoteNameRequest(pageTimeout time.Duration, onComplete device.CompleteFunc) device.Status {
	t, err := d.host.getTransport()
	if err != nil {
		return device.StatusFromError(err)
	}

	d.mu.Lock()
	if d.naming {
		d.mu.Unlock()
		return device.StatusBusy
	}
	d.naming = true
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), pageTimeout)
	groutine.Go(ctx, "name-request", func(ctx context.Context) {
		defer cancel()

		var (
			foundMu sync.Mutex
			found   string
		)
		err := t.Scan(ctx, true, func(adv ble.Advertisement) {
			if device.FormatAddress(adv.Addr().String()) != d.address || adv.LocalName() == "" {
				return
			}
			foundMu.Lock()
			if found == "" {
				found = adv.LocalName()
				cancel()
			}
			foundMu.Unlock()
		})

		foundMu.Lock()
		name := found
		foundMu.Unlock()

		d.mu.Lock()
		d.naming = false
		if name != "" {
			d.name = name
		}
		d.mu.Unlock()

		switch {
		case name != "":
			onComplete(device.StatusSuccess)
		case err == nil:
			onComplete(device.StatusTimeout)
		default:
			onComplete(device.StatusFromError(device.NormalizeError(err)))
		}
	})
	return device.StatusSuccess
}
