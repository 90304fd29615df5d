package device

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/denisbrodbeck/machineid"
)

var unsafeChars = regexp.MustCompile(`[^a-z0-9-]+`)

// Fingerprinter derives a stable, non-reversible identifier for the host
type Fingerprinter struct {
	appID    string
	idSource func(appID string) (string, error)
	hostname func() (string, error)
}

// New creates a new Fingerprinter scoped to appID
func New(appID string) *Fingerprinter {
	return &Fingerprinter{
		appID:    appID,
		idSource: machineid.ProtectedID,
		hostname: os.Hostname,
	}
}

// InstanceID returns the first 16 characters of the app-scoped machine id.
// When the machine id is unavailable it falls back to a sanitised hostname.
func (f *Fingerprinter) InstanceID() (string, error) {
	id, err := f.idSource(f.appID)
	if err == nil && len(id) >= 16 {
		return id[:16], nil
	}

	host, hostErr := f.hostname()
	if hostErr != nil {
		return "", fmt.Errorf("failed to get machine ID (%v) or hostname: %w", err, hostErr)
	}
	host = strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(host), "-"), "-")
	if host == "" {
		return "", fmt.Errorf("failed to get machine ID: %v", err)
	}
	return host, nil
}
