package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for wallet client configuration
const (
	EnvWaxRPCURL         = "WAX_RPC_URL"
	EnvWaxSigningURL     = "WAX_SIGNING_URL"
	EnvWaxAutoSigningURL = "WAX_AUTO_SIGNING_URL"
	EnvWaxUserAccount    = "WAX_USER_ACCOUNT"
	EnvWaxVerbose        = "WAX_VERBOSE"
)

// Default wallet endpoints
const (
	DefaultWaxSigningURL     = "https://all-access.wax.io"
	DefaultWaxAutoSigningURL = "https://api-idm.wax.io/v1/accounts/auto-accept/"
)

// Wallet window paths, appended to WaxSigningURL.
const (
	LoginPath   = "/cloud-wallet/login/"
	SigningPath = "/cloud-wallet/signing/"
)

// Config is the wallet client configuration.
type Config struct {
	// RPCEndpoint is the chain API node used to deserialize transactions.
	RPCEndpoint string `json:"rpc_endpoint" yaml:"rpcEndpoint"`

	// TryAutoLogin enables the silent backend login attempt before any
	// interactive login.
	TryAutoLogin bool `json:"try_auto_login" yaml:"tryAutoLogin"`

	// UserAccount and PubKeys inject a pre-verified identity, skipping
	// every network and interactive login path.
	UserAccount string   `json:"user_account,omitempty" yaml:"userAccount"`
	PubKeys     []string `json:"pub_keys,omitempty" yaml:"pubKeys"`

	// WaxSigningURL hosts the interactive login and signing windows.
	WaxSigningURL string `json:"wax_signing_url" yaml:"waxSigningURL"`

	// WaxAutoSigningURL hosts the silent login and signing endpoints.
	// Endpoint paths are appended directly, so it must end with "/".
	WaxAutoSigningURL string `json:"wax_auto_signing_url" yaml:"waxAutoSigningURL"`

	// Operational settings
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// DefaultConfig returns a Config pointing at the production wallet.
func DefaultConfig() *Config {
	return &Config{
		TryAutoLogin:      true,
		WaxSigningURL:     DefaultWaxSigningURL,
		WaxAutoSigningURL: DefaultWaxAutoSigningURL,
	}
}

// Validate checks the configuration and fills in defaulted fields.
func (c *Config) Validate() error {
	var allErrors field.ErrorList

	if c.WaxSigningURL == "" {
		c.WaxSigningURL = DefaultWaxSigningURL
	}
	if c.WaxAutoSigningURL == "" {
		c.WaxAutoSigningURL = DefaultWaxAutoSigningURL
	}

	if c.RPCEndpoint == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("rpcEndpoint"), "rpcEndpoint is required"))
	} else if _, err := url.ParseRequestURI(c.RPCEndpoint); err != nil {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rpcEndpoint"), c.RPCEndpoint, err.Error()))
	}

	if _, err := url.ParseRequestURI(c.WaxSigningURL); err != nil {
		allErrors = append(allErrors, field.Invalid(field.NewPath("waxSigningURL"), c.WaxSigningURL, err.Error()))
	} else {
		c.WaxSigningURL = strings.TrimRight(c.WaxSigningURL, "/")
	}

	if _, err := url.ParseRequestURI(c.WaxAutoSigningURL); err != nil {
		allErrors = append(allErrors, field.Invalid(field.NewPath("waxAutoSigningURL"), c.WaxAutoSigningURL, err.Error()))
	} else if !strings.HasSuffix(c.WaxAutoSigningURL, "/") {
		// Endpoint names are concatenated onto this URL.
		c.WaxAutoSigningURL += "/"
	}

	if c.UserAccount != "" && len(c.PubKeys) == 0 {
		allErrors = append(allErrors, field.Required(field.NewPath("pubKeys"), "pubKeys are required when userAccount is set"))
	}
	if c.UserAccount == "" && len(c.PubKeys) > 0 {
		allErrors = append(allErrors, field.Required(field.NewPath("userAccount"), "userAccount is required when pubKeys are set"))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// LoginURL is the interactive login window URL.
func (c *Config) LoginURL() string {
	return c.WaxSigningURL + LoginPath
}

// SigningURL is the confirmation window URL.
func (c *Config) SigningURL() string {
	return c.WaxSigningURL + SigningPath
}

// LoadFile reads a YAML config file and applies defaults for unset fields.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
