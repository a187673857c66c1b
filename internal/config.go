package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notesmith/internal/noteservice"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config is the notesmith configuration file.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate checks every section in file order and stops at the first
// failing one.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    validation.Validatable
	}{
		{"app.http", &c.App.HTTP},
		{"vault", &c.Vault},
		{"sqlite", &c.SQLite},
		{"auth", &c.Auth},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// ApplicationConfig holds logging and HTTP settings.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// HTTPConfig holds the HTTP listener settings.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the listen address for the configured port.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate requires a usable TCP port.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the Markdown vault location and its special folders.
type VaultConfig struct {
	Path            string   `yaml:"path"`
	TemplatesFolder string   `yaml:"templates_folder"`
	ArchiveFolder   string   `yaml:"archive_folder"`
	Ignore          []string `yaml:"ignore"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.TemplatesFolder, validation.Required, validation.By(relativeFolder)),
		validation.Field(&c.ArchiveFolder, validation.Required, validation.By(relativeFolder)),
		validation.Field(&c.Ignore, validation.Each(validation.By(globPattern))),
	)
}

// IgnorePatterns returns the configured ignore globs plus the templates and
// archive folders, which are never indexed.
func (c *VaultConfig) IgnorePatterns() []string {
	out := make([]string, 0, len(c.Ignore)+2)
	out = append(out, c.Ignore...)
	return append(out,
		strings.Trim(c.TemplatesFolder, "/")+"/**",
		strings.Trim(c.ArchiveFolder, "/")+"/**",
	)
}

func relativeFolder(value any) error {
	s, _ := value.(string)
	clean := path.Clean(strings.Trim(s, "/"))
	if strings.HasPrefix(s, "/") || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return errors.New("must be a folder inside the vault")
	}
	return nil
}

func globPattern(value any) error {
	s, _ := value.(string)
	if s == "" || !doublestar.ValidatePattern(s) {
		return fmt.Errorf("invalid glob pattern %q", s)
	}
	return nil
}

// SQLiteConfig locates the index database. The index is derived from the
// vault and can be deleted at any time.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate requires a database path.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig controls API authentication. Mode "disabled" (the default)
// serves the API openly; mode "token" requires "Authorization: Bearer
// <token>" on every /api request.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate normalises an empty mode to disabled and requires a token in
// token mode.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
		validation.Field(&c.Token, validation.When(c.Mode == AuthModeToken,
			validation.Required.Error("token is empty while mode is token"))),
	)
}

// AuthEnabled reports whether requests must carry the bearer token.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns the configuration used for keys missing from the
// config file.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP:     HTTPConfig{Port: 8080},
		},
		Vault: VaultConfig{
			Path:            "./vault",
			TemplatesFolder: noteservice.DefaultTemplatesFolder,
			ArchiveFolder:   noteservice.DefaultArchiveFolder,
		},
		SQLite: SQLiteConfig{Path: "./notesmith.db"},
		Auth:   AuthConfig{Mode: AuthModeDisabled},
	}
}
