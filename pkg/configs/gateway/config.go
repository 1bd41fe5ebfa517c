// Package gateway loads the configuration of the gateway and ywctl.
//
// Example:
//
//	port: "8080"
//	logLevel: info
//	timeout: 30s
//	services:
//	  treedb: http://treedb:8080
//	  storage: http://storage:8080
//	  accounts: http://accounts:8080
//	  cdn: http://cdn:8080
//	  files: http://files:8080
//	auth:
//	  hmacSecret: "..."
//	admin:
//	  tokenUrl: https://auth.example.com/token
//	  clientId: gateway
//	  clientSecret: "..."
//	  scopes: [openid]
//	pathLock:
//	  postgres: postgres://user:pass@pg:5432/locks
package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	xe "github.com/youwol/backends/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath is the environment variable consulted when no config path is given.
const EnvConfigPath = "YW_GATEWAY_CONFIG"

const defaultPort = "8080"

type Services struct {
	TreeDb   *url.URL
	Storage  *url.URL
	Accounts *url.URL
	Cdn      *url.URL
	Files    *url.URL
}

func (s *Services) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		TreeDb   string `yaml:"treedb"`
		Storage  string `yaml:"storage"`
		Accounts string `yaml:"accounts"`
		Cdn      string `yaml:"cdn"`
		Files    string `yaml:"files"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	for _, f := range []struct {
		name string
		raw  string
		dest **url.URL
	}{
		{name: "treedb", raw: raw.TreeDb, dest: &s.TreeDb},
		{name: "storage", raw: raw.Storage, dest: &s.Storage},
		{name: "accounts", raw: raw.Accounts, dest: &s.Accounts},
		{name: "cdn", raw: raw.Cdn, dest: &s.Cdn},
		{name: "files", raw: raw.Files, dest: &s.Files},
	} {
		u, err := absoluteURL(f.raw)
		if err != nil {
			return fmt.Errorf("services.%s: %w", f.name, err)
		}
		*f.dest = u
	}
	return nil
}

type Auth struct {
	// HmacSecret verifies bearer tokens (HS256).
	//
	// When empty, the gateway does not verify tokens.
	HmacSecret string `yaml:"hmacSecret,omitempty"`
}

// Admin is the OAuth2 client credentials to call backends as the gateway itself.
type Admin struct {
	TokenUrl     string   `yaml:"tokenUrl,omitempty"`
	ClientId     string   `yaml:"clientId,omitempty"`
	ClientSecret string   `yaml:"clientSecret,omitempty"`
	Scopes       []string `yaml:"scopes,omitempty"`
}

func (a Admin) Enabled() bool {
	return a.TokenUrl != ""
}

type PathLock struct {
	// Postgres is the connection string of the database for advisory locks.
	//
	// When empty, locks are taken in the process.
	Postgres string `yaml:"postgres,omitempty"`
}

type Config struct {
	Port     string
	LogLevel string

	// Timeout bounds each call to backend services. 0 means no timeout.
	Timeout time.Duration

	// CACerts are base64 encoded PEM certificates to be trusted in addition to the system's.
	CACerts []string

	Services Services
	Auth     Auth
	Admin    Admin
	PathLock PathLock
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Port     string        `yaml:"port,omitempty"`
		LogLevel string        `yaml:"logLevel,omitempty"`
		Timeout  time.Duration `yaml:"timeout,omitempty"`
		CACerts  []string      `yaml:"caCerts,omitempty"`
		Services *Services     `yaml:"services"`
		Auth     Auth          `yaml:"auth,omitempty"`
		Admin    Admin         `yaml:"admin,omitempty"`
		PathLock PathLock      `yaml:"pathLock,omitempty"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Services == nil {
		return xe.Configuration("services: required")
	}
	if raw.Timeout < 0 {
		return xe.Configuration("timeout: should not be negative: %s", raw.Timeout)
	}
	if a := raw.Admin; a.TokenUrl != "" || a.ClientId != "" || a.ClientSecret != "" {
		if a.TokenUrl == "" || a.ClientId == "" || a.ClientSecret == "" {
			return xe.Configuration("admin: tokenUrl, clientId and clientSecret are required together")
		}
		if _, err := absoluteURL(a.TokenUrl); err != nil {
			return fmt.Errorf("admin.tokenUrl: %w", err)
		}
	}

	c.Port = raw.Port
	if c.Port == "" {
		c.Port = defaultPort
	}
	c.LogLevel = raw.LogLevel
	c.Timeout = raw.Timeout
	c.CACerts = raw.CACerts
	c.Services = *raw.Services
	c.Auth = raw.Auth
	c.Admin = raw.Admin
	c.PathLock = raw.PathLock
	return nil
}

func absoluteURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, xe.Configuration("required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", xe.ErrConfiguration, err)
	}
	if !u.IsAbs() || u.Hostname() == "" {
		return nil, xe.Configuration("not absolute: %s", raw)
	}
	return u, nil
}

// Path returns file, or the value of YW_GATEWAY_CONFIG if file is empty.
func Path(file string) string {
	if file != "" {
		return file
	}
	return os.Getenv(EnvConfigPath)
}

// Load loads configuration from the file.
//
// When file is empty, the path is taken from the environment variable YW_GATEWAY_CONFIG.
//
// All errors wrap errors.ErrConfiguration.
func Load(file string) (Config, error) {
	file = Path(file)
	if file == "" {
		return Config{}, xe.Configuration("config file is not given (set %s)", EnvConfigPath)
	}

	f, err := os.Open(file)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", xe.ErrConfiguration, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	cfg := Config{}
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, xe.ErrConfiguration) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("%w: %s: %w", xe.ErrConfiguration, file, err)
	}
	return cfg, nil
}
