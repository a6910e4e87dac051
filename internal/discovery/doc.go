// Package discovery locates heat pump controllers on the local network
// using multicast DNS.
//
// Controllers do not advertise their websocket endpoint. Their web
// interface shows up as an "_http._tcp" service, and entries are matched
// by hostname or instance name against a pattern. The websocket port is
// always assumed to be 8214.
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	controllers, err := scanner.Scan(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, c := range controllers {
//	    fmt.Println(c)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Controllers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
