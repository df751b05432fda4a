// Package picker lets a user choose a device or service from a numbered list.
package picker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/srg/btfind/internal/device"
)

// Picker reads choices from in and writes the menu to out.
type Picker struct {
	in  *bufio.Reader
	out io.Writer

	index  *color.Color
	detail *color.Color
}

// New creates a picker. Colors are written only when colors is true.
func New(in io.Reader, out io.Writer, colors bool) *Picker {
	p := &Picker{
		in:     bufio.NewReader(in),
		out:    out,
		index:  color.New(color.FgCyan, color.Bold),
		detail: color.New(color.FgHiBlack),
	}
	if colors {
		p.index.EnableColor()
		p.detail.EnableColor()
	} else {
		p.index.DisableColor()
		p.detail.DisableColor()
	}
	return p
}

// ChooseDevice prints devices and returns the chosen one, or nil when cancelled
// or there is nothing to choose from.
func (p *Picker) ChooseDevice(devices []device.DeviceRecord) (*device.DeviceRecord, error) {
	if len(devices) == 0 {
		fmt.Fprintln(p.out, "No devices found")
		return nil, nil
	}

	fmt.Fprintln(p.out, "Select a device:")
	for i, d := range devices {
		name := "(unknown)"
		if d.Name != nil {
			name = *d.Name
		}
		p.index.Fprintf(p.out, "%3d) ", i+1)
		fmt.Fprintf(p.out, "%s ", name)
		p.detail.Fprintf(p.out, "[%s]\n", d.Address)
	}

	i, err := p.choose(len(devices))
	if err != nil || i < 0 {
		return nil, err
	}
	choice := devices[i]
	return &choice, nil
}

// ChooseService prints services and returns the chosen one, or nil when cancelled
// or there is nothing to choose from.
func (p *Picker) ChooseService(services []device.ServiceRecord) (*device.ServiceRecord, error) {
	if len(services) == 0 {
		fmt.Fprintln(p.out, "No services found")
		return nil, nil
	}

	fmt.Fprintln(p.out, "Select a service:")
	for i, s := range services {
		name := s.Name
		if name == "" {
			name = "(unnamed)"
		}
		channel := "-"
		if s.Channel != nil {
			channel = strconv.Itoa(*s.Channel)
		}
		p.index.Fprintf(p.out, "%3d) ", i+1)
		fmt.Fprintf(p.out, "%s ", name)
		p.detail.Fprintf(p.out, "[%s channel %s]\n", s.Address, channel)
	}

	i, err := p.choose(len(services))
	if err != nil || i < 0 {
		return nil, err
	}
	choice := services[i]
	return &choice, nil
}

// choose prompts until a valid 1-based entry is read and returns its index.
// Empty input, "q" or EOF cancel with -1.
func (p *Picker) choose(count int) (int, error) {
	for {
		fmt.Fprintf(p.out, "Enter number (1-%d, empty to cancel): ", count)

		line, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return -1, err
		}

		answer := strings.TrimSpace(line)
		if answer == "" || strings.EqualFold(answer, "q") {
			return -1, nil
		}

		n, convErr := strconv.Atoi(answer)
		if convErr == nil && n >= 1 && n <= count {
			return n - 1, nil
		}
		fmt.Fprintf(p.out, "Invalid choice %q\n", answer)

		if errors.Is(err, io.EOF) {
			return -1, nil
		}
	}
}
