package backend

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/salesdeck/insight-console/internal/kind"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"sigs.k8s.io/yaml"
)

const (
	// ConfigDirEnvKey overrides the directory of the default client config file.
	ConfigDirEnvKey = "INSIGHT_CONFIG_DIR"

	defaultRequestTimeout = 30 * time.Second
)

// Config holds the information needed to reach the generation backend.
type Config struct {
	Service Service `json:"service"`
}

type Service struct {
	// Server is the base URL of the backend (the part before /api/...).
	Server string `json:"server"`
	// Timeout bounds a single request. Zero means the default.
	Timeout Duration `json:"timeout,omitempty"`
}

// Duration reads "30s" style values from yaml.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func NewDefault() *Config {
	return &Config{}
}

// DefaultClientConfigPath returns the default path to the client config file.
func DefaultClientConfigPath() string {
	if dir := os.Getenv(ConfigDirEnvKey); dir != "" {
		return filepath.Join(filepath.Clean(dir), "client.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".insight", "client.yaml")
}

func ParseConfigFile(filename string) (*Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	config := NewDefault()
	if err := yaml.Unmarshal(contents, config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// WriteConfig writes a client config file pointing at server.
func WriteConfig(filename string, server string) error {
	config := NewDefault()
	config.Service = Service{Server: server}
	if err := config.Validate(); err != nil {
		return err
	}
	return config.Persist(filename)
}

func (c *Config) Persist(filename string) error {
	contents, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.WriteFile(filename, contents, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	validationErrors := validateService(c.Service)
	if len(validationErrors) > 0 {
		return fmt.Errorf("invalid configuration: %v", utilerrors.NewAggregate(validationErrors).Error())
	}
	return nil
}

func validateService(service Service) []error {
	validationErrors := make([]error, 0)
	if len(service.Server) == 0 {
		validationErrors = append(validationErrors, fmt.Errorf("no server found"))
	} else {
		u, err := url.Parse(service.Server)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("invalid server format %q: %w", service.Server, err))
		}
		if err == nil && len(u.Hostname()) == 0 {
			validationErrors = append(validationErrors, fmt.Errorf("invalid server format %q: no hostname", service.Server))
		}
		if err == nil && u.Scheme != "http" && u.Scheme != "https" {
			validationErrors = append(validationErrors, fmt.Errorf("invalid server format %q: unsupported scheme", service.Server))
		}
	}
	if service.Timeout.Duration < 0 {
		validationErrors = append(validationErrors, fmt.Errorf("timeout must not be negative"))
	}
	return validationErrors
}

// NewHTTPClientFromConfig returns a new HTTP client from the given config.
func NewHTTPClientFromConfig(config *Config) *http.Client {
	timeout := config.Service.Timeout.Duration
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// NewFromConfig returns one backend client per registered kind.
func NewFromConfig(config *Config) map[string]*Client {
	httpClient := NewHTTPClientFromConfig(config)
	clients := map[string]*Client{}
	for _, name := range kind.Names() {
		k, _ := kind.Lookup(name)
		clients[name] = NewClient(config.Service.Server, k, httpClient)
	}
	return clients
}
