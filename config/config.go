// Package config loads the tenant file of the demo relying party service.
package config

import (
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/cccteam/oidcrp/client"
	"github.com/go-playground/errors/v5"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Session store kinds.
const (
	StoreCookie   = "cookie"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

var responseTypes = []string{
	"code",
	"id_token",
	"id_token token",
	"code id_token",
	"code token",
	"code id_token token",
}

// Config is the demo service configuration.
type Config struct {
	Address   string   `yaml:"address" validate:"required"`
	CookieKey string   `yaml:"cookie_key"`
	Session   Session  `yaml:"session"`
	Tenants   []Tenant `yaml:"tenants" validate:"required,min=1,unique=Name,dive"`
}

// Session selects where user sessions are kept.
type Session struct {
	Store       string        `yaml:"store" validate:"omitempty,oneof=cookie memory postgres"`
	PostgresURL string        `yaml:"postgres_url" validate:"required_if=Store postgres"`
	TTL         time.Duration `yaml:"ttl"`
}

// Tenant is one relying party registration at one issuer.
type Tenant struct {
	Name          string            `yaml:"name" validate:"required,alphanum"`
	Issuer        string            `yaml:"issuer" validate:"required,url"`
	ClientID      string            `yaml:"client_id" validate:"required"`
	ClientSecret  string            `yaml:"client_secret"`
	ResponseTypes []string          `yaml:"response_types" validate:"dive,response_type"`
	RedirectURIs  []string          `yaml:"redirect_uris" validate:"required,min=1,dive,url"`
	Scopes        []string          `yaml:"scopes"`
	ResponseMode  string            `yaml:"response_mode" validate:"omitempty,oneof=query fragment form_post"`
	PKCE          bool              `yaml:"pkce"`
	Claims        bool              `yaml:"claims"`
	AuthParams    map[string]string `yaml:"auth_params"`
}

// Metadata returns the client registration of the tenant.
func (t Tenant) Metadata() client.Metadata {
	return client.Metadata{
		ClientID:      t.ClientID,
		ClientSecret:  t.ClientSecret,
		ResponseTypes: t.ResponseTypes,
		RedirectURIs:  t.RedirectURIs,
		Scopes:        t.Scopes,
		ResponseMode:  t.ResponseMode,
	}
}

// Tenant returns the tenant called name.
func (c *Config) Tenant(name string) (Tenant, bool) {
	i := slices.IndexFunc(c.Tenants, func(t Tenant) bool { return t.Name == name })
	if i < 0 {
		return Tenant{}, false
	}

	return c.Tenants[i], true
}

// Load reads the YAML file at path. Each env file that exists is loaded into
// the environment first, and ${VAR} references in the file are expanded.
func Load(path string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "godotenv.Load(): %s", f)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "os.ReadFile()")
	}

	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "yaml.Unmarshal()")
	}

	if cfg.Session.Store == "" {
		cfg.Session.Store = StoreCookie
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("response_type", func(fl validator.FieldLevel) bool {
		return slices.Contains(responseTypes, strings.Join(strings.Fields(fl.Field().String()), " "))
	}); err != nil {
		return errors.Wrap(err, "validator.Validate.RegisterValidation()")
	}

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "validator.Validate.Struct()")
	}

	return nil
}
