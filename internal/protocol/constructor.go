package protocol

import (
	"net"
	"net/url"
	"strconv"
)

// Wire constants.
const (
	SubProtocol = "Lux_WS"
	DefaultPort = 8214

	LoginCommand   = "LOGIN;0"
	RefreshCommand = "REFRESH"

	selectPrefix = "GET;"
)

// SelectCommand builds the command that selects the data set at address.
func SelectCommand(address string) string {
	return selectPrefix + address
}

// URL returns the websocket URL of a controller. A port of zero selects
// DefaultPort.
func URL(host string, port int) string {
	if port == 0 {
		port = DefaultPort
	}
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
	}
	return u.String()
}
