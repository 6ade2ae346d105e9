package transport

import (
	"sort"

	gobug "go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	serial "github.com/allbin/go-serial-term"
)

// PortDetails describes a port found by either discovery mechanism.
type PortDetails struct {
	Name         string
	Description  string
	IsUSB        bool
	VendorID     string
	ProductID    string
	SerialNumber string
	Product      string
}

// ListPorts returns the tty device paths suitable for a terminal session.
// With all set, every port go.bug.st/serial can see is included, pseudo
// terminals and platform specific names among them.
func ListPorts(all bool) ([]string, error) {
	if !all {
		return serial.ListPorts()
	}
	ports, err := gobug.GetPortsList()
	if err != nil {
		return nil, err
	}
	sort.Strings(ports)
	return ports, nil
}

// ListDetailed returns USB metadata for every enumerable port.
func ListDetailed() ([]PortDetails, error) {
	found, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	details := make([]PortDetails, 0, len(found))
	for _, p := range found {
		d := PortDetails{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VendorID:     p.VID,
			ProductID:    p.PID,
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
			Description:  "Serial Port",
		}
		if info, err := serial.GetPortInfo(p.Name); err == nil {
			d.Description = info.Description
		}
		details = append(details, d)
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Name < details[j].Name })
	return details, nil
}
