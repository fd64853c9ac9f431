// ABOUTME: Configuration for the Charm KV backend connection
// ABOUTME: Holds the server host and auto-sync preference

package charm

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName names the Charm KV database.
	AppName = "dealflow"
)

// Config holds charm connection settings.
type Config struct {
	// Host is the charm server hostname (default: charm.2389.dev)
	Host string `json:"host,omitempty"`

	// AutoSync pushes to the server after every write
	AutoSync bool `json:"auto_sync"`
}

// DefaultConfig returns a new config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:     DefaultCharmHost,
		AutoSync: true,
	}
}

// NewConfig fills in the default host when none is given.
func NewConfig(host string, autoSync bool) *Config {
	if host == "" {
		host = DefaultCharmHost
	}
	return &Config{Host: host, AutoSync: autoSync}
}
