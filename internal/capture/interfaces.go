package capture

import (
	"fmt"

	"github.com/mdlayher/wifi"
)

// Interface describes a wireless interface.
type Interface struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	HardwareAddr string `json:"hardware_addr,omitempty"`
	PHY          int    `json:"phy"`
	Mode         string `json:"mode"`
	Monitor      bool   `json:"monitor"`
	Frequency    int    `json:"frequency_mhz,omitempty"`
}

// Interfaces lists the wireless interfaces known to nl80211.
func Interfaces() ([]Interface, error) {
	c, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("capture: nl80211: %w", err)
	}
	defer c.Close()

	ifis, err := c.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("capture: list interfaces: %w", err)
	}
	return fromWifi(ifis), nil
}

func fromWifi(ifis []*wifi.Interface) []Interface {
	out := make([]Interface, 0, len(ifis))
	for _, ifi := range ifis {
		if ifi.Name == "" {
			// Devices without a netdev, such as P2P management.
			continue
		}
		i := Interface{
			Index:     ifi.Index,
			Name:      ifi.Name,
			PHY:       ifi.PHY,
			Mode:      ifi.Type.String(),
			Monitor:   ifi.Type == wifi.InterfaceTypeMonitor,
			Frequency: ifi.Frequency,
		}
		if ifi.HardwareAddr != nil {
			i.HardwareAddr = ifi.HardwareAddr.String()
		}
		out = append(out, i)
	}
	return out
}

// FindInterface returns the interface called name.
func FindInterface(ifis []Interface, name string) (Interface, bool) {
	for _, i := range ifis {
		if i.Name == name {
			return i, true
		}
	}
	return Interface{}, false
}
