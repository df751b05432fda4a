package bluetooth

import (
	"context"
	"fmt"
	"time"

	"github.com/srg/btfind/internal/device"
)

// DiscoverOptions configures DiscoverDevices.
type DiscoverOptions struct {
	Duration    time.Duration
	LookupNames bool
	LookupClass bool
}

// DiscoveredDevice is the flattened inquiry result; Name and Class are only
// set when requested.
type DiscoveredDevice struct {
	Address string  `json:"address"`
	Name    *string `json:"name,omitempty"`
	Class   *uint32 `json:"class,omitempty"`
}

// Service is the flattened view of a service record.
type Service struct {
	Host           string  `json:"host"`
	Port           *int    `json:"port"`
	Name           string  `json:"name"`
	Description    *string `json:"description"`
	Provider       *string `json:"provider"`
	Protocol       any     `json:"protocol"`
	ServiceClasses []any   `json:"service-classes"`
	Profiles       []any   `json:"profiles"`
	ServiceID      any     `json:"service-id"`
}

// DiscoverDevices runs an inquiry and trims each record to the requested fields.
func (f *Finder) DiscoverDevices(ctx context.Context, opts DiscoverOptions) ([]DiscoveredDevice, error) {
	records, err := f.FindDevices(ctx, opts.LookupNames, opts.Duration)
	if err != nil {
		return nil, err
	}

	out := make([]DiscoveredDevice, 0, len(records))
	for _, r := range records {
		d := DiscoveredDevice{Address: r.Address}
		if opts.LookupNames {
			d.Name = r.Name
		}
		if opts.LookupClass {
			class := r.Class
			d.Class = &class
		}
		out = append(out, d)
	}
	return out, nil
}

// FindService returns the flattened services matching name, uuid and address.
func (f *Finder) FindService(ctx context.Context, name string, uuid uint16, address string) ([]Service, error) {
	records, err := f.FindServices(ctx, ServiceQuery{Address: address, Name: name, UUID: uuid})
	if err != nil {
		return nil, err
	}

	out := make([]Service, 0, len(records))
	for _, r := range records {
		out = append(out, NewService(r))
	}
	return out, nil
}

// NewService flattens a service record, filling absent attributes with nil or empty lists.
func NewService(r device.ServiceRecord) Service {
	s := Service{
		Host:           r.Address,
		Port:           r.Channel,
		Name:           r.Name,
		ServiceClasses: []any{},
		Profiles:       []any{},
	}
	if v, ok := r.Attribute(device.ServiceDescriptionAttr); ok {
		s.Description = stringAttr(v)
	}
	if v, ok := r.Attribute(device.ProviderNameAttr); ok {
		s.Provider = stringAttr(v)
	}
	if v, ok := r.Attribute(device.ProtocolDescriptorListAttr); ok {
		s.Protocol = v
	}
	if v, ok := r.Attribute(device.ServiceClassIDListAttr); ok {
		s.ServiceClasses = listAttr(v)
	}
	if v, ok := r.Attribute(device.BluetoothProfileDescriptorListAttr); ok {
		s.Profiles = listAttr(v)
	}
	if v, ok := r.Attribute(device.ServiceIDAttr); ok {
		s.ServiceID = v
	}
	return s
}

func stringAttr(v any) *string {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return &s
}

func listAttr(v any) []any {
	switch l := v.(type) {
	case nil:
		return []any{}
	case []any:
		return l
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	default:
		return []any{l}
	}
}

// AdvertiseService is not supported by any backend.
func (f *Finder) AdvertiseService(_ context.Context, _ Service) error {
	return fmt.Errorf("advertising services: %w", device.ErrUnsupported)
}

// StopAdvertising is not supported by any backend.
func (f *Finder) StopAdvertising(_ context.Context) error {
	return fmt.Errorf("stop advertising: %w", device.ErrUnsupported)
}
