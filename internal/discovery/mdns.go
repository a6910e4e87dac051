package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/luxws/internal/logging"
	"github.com/muurk/luxws/internal/protocol"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service type the controller's web interface
	// advertises
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for controller discovery
	DefaultScanTimeout = 5 * time.Second
)

// DefaultPattern matches the host or instance names controllers use.
var DefaultPattern = regexp.MustCompile(`(?i)(luxtronik|luxws|heatpump|waermepumpe|alpha[- ]?innotec|novelan)`)

// Scanner handles mDNS controller discovery
type Scanner struct {
	// Timeout is the maximum time to wait for controllers
	Timeout time.Duration

	// Pattern selects entries by hostname or instance name
	Pattern *regexp.Regexp

	browse browseFunc
}

type browseFunc func(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		Pattern: DefaultPattern,
		browse:  zeroconfBrowse,
	}
}

func zeroconfBrowse(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	return nil
}

// Scan discovers controllers until the timeout elapses or ctx is done.
// Entries are deduplicated by address.
func (s *Scanner) Scan(ctx context.Context) ([]*Controller, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	var (
		mu          sync.Mutex
		controllers = make([]*Controller, 0)
		seen        = make(map[string]bool)
		wg          sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				c := s.parseServiceEntry(entry)
				if c == nil {
					continue
				}
				mu.Lock()
				if !seen[c.Address()] {
					seen[c.Address()] = true
					controllers = append(controllers, c)
					logging.Debug("Controller discovered",
						zap.String("instance", c.Instance),
						zap.String("address", c.Address()))
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := s.browse(ctx, entries); err != nil {
		cancel()
		wg.Wait()
		return nil, err
	}

	<-ctx.Done()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	return controllers, nil
}

// First returns the first controller found, or an error when none shows
// up within the timeout.
func (s *Scanner) First(ctx context.Context) (*Controller, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Controller, 1)

	go func() {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if c := s.parseServiceEntry(entry); c != nil {
					found <- c
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := s.browse(ctx, entries); err != nil {
		return nil, err
	}

	select {
	case c := <-found:
		return c, nil
	case <-ctx.Done():
		// A match may have raced the cancellation.
		select {
		case c := <-found:
			return c, nil
		default:
		}
		return nil, fmt.Errorf("no controller found within %s", s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Controller.
// Returns nil if the entry does not look like a controller.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Controller {
	if entry == nil {
		return nil
	}
	hostname := entry.HostName
	if hostname == "" {
		return nil
	}

	pattern := s.Pattern
	if pattern == nil {
		pattern = DefaultPattern
	}
	if !pattern.MatchString(hostname) && !pattern.MatchString(entry.Instance) {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			// Key without value
			metadata[parts[0]] = ""
		}
	}

	return &Controller{
		Instance:     entry.Instance,
		Hostname:     hostname,
		IP:           ip,
		Port:         protocol.DefaultPort,
		WebPort:      entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
