package cli

import (
	"fmt"
	"net/http"

	"github.com/salesdeck/insight-console/internal/backend"
	"github.com/salesdeck/insight-console/internal/kind"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type GlobalOptions struct {
	ConfigFilePath string
	// BackendURL overrides the server of the config file.
	BackendURL string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ConfigFilePath: backend.DefaultClientConfigPath(),
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFilePath, "config", "c", o.ConfigFilePath, "Path to the client config file.")
	fs.StringVarP(&o.BackendURL, "backend-url", "u", o.BackendURL, "Address of the generation backend. Overrides the config file.")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	if o.BackendURL == "" && o.ConfigFilePath == "" {
		return fmt.Errorf("either --backend-url or --config must be set")
	}
	return nil
}

// Config resolves the client configuration from the flags or the config file.
func (o *GlobalOptions) Config() (*backend.Config, error) {
	if o.BackendURL != "" {
		cfg := backend.NewDefault()
		cfg.Service.Server = o.BackendURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	cfg, err := backend.ParseConfigFile(o.ConfigFilePath)
	if err != nil {
		return nil, fmt.Errorf("%w. Run \"insightctl login URL\" first or pass --backend-url", err)
	}
	return cfg, nil
}

func (o *GlobalOptions) HTTPClient() (*http.Client, *backend.Config, error) {
	cfg, err := o.Config()
	if err != nil {
		return nil, nil, err
	}
	return backend.NewHTTPClientFromConfig(cfg), cfg, nil
}

func (o *GlobalOptions) Client(k kind.Kind) (*backend.Client, error) {
	httpClient, cfg, err := o.HTTPClient()
	if err != nil {
		return nil, err
	}
	return backend.NewClient(cfg.Service.Server, k, httpClient), nil
}
