package aralco

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/storesync/backend/internal/domain/integration"
)

// Config holds the connection settings of the Aralco Ecommerce API
type Config struct {
	// APILocation is the base URL of the API, e.g. https://pos.example.com/
	APILocation string
	// APIToken is sent as the Authorization credential on every request
	APIToken string
	// Timeout bounds each request, including reading the body
	Timeout time.Duration
	// RequestsPerSecond throttles outgoing calls, 0 disables throttling
	RequestsPerSecond float64
	// Burst is the number of calls allowed back to back
	Burst int
}

// Validate checks the credentials are present and fills defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APILocation) == "" {
		return fmt.Errorf("%w: aralco api location", integration.ErrConfigMissing)
	}
	if strings.TrimSpace(c.APIToken) == "" {
		return fmt.Errorf("%w: aralco api token", integration.ErrConfigMissing)
	}
	u, err := url.Parse(c.APILocation)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: aralco api location %q is not an absolute url", integration.ErrConfigMissing, c.APILocation)
	}
	if !strings.HasSuffix(c.APILocation, "/") {
		c.APILocation += "/"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return nil
}
