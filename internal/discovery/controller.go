package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Controller represents a heat pump controller found on the network.
type Controller struct {
	// Instance is the advertised service instance name (e.g., "Luxtronik-2.1")
	Instance string

	// Hostname is the mDNS hostname (e.g., "luxtronik.local.")
	Hostname string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the websocket port; the controller never advertises it
	Port int

	// WebPort is the advertised HTTP port
	WebPort int

	// Metadata contains the mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the controller was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the controller
func (c *Controller) String() string {
	return fmt.Sprintf("%s (%s) at %s", c.Instance, c.Hostname, c.Address())
}

// Address returns the host:port of the websocket endpoint.
func (c *Controller) Address() string {
	return net.JoinHostPort(c.IP, strconv.Itoa(c.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (c *Controller) GetMetadata(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}
