// Package config resolves zkgen settings from flags, the zkgen.toml config
// file and the environment, in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Setting keys. Each is also the flag name, the config file key and, upper
// cased with a ZKGEN_ prefix, the environment variable.
const (
	KeyToken       = "token"
	KeyWorkspace   = "workspace"
	KeyOutput      = "output"
	KeyPackage     = "package"
	KeyModule      = "module"
	KeyEndpoint    = "endpoint"
	KeyFormatter   = "formatter"
	KeySnapshot    = "snapshot"
	KeyCache       = "cache"
	KeyCacheTTL    = "cache-ttl"
	KeyConcurrency = "concurrency"
	KeyLogJSON     = "log-json"
	KeyVerbose     = "verbose"
	KeyConfig      = "config"
)

// TokenEnv is the conventional variable holding the Zenkit API key.
const TokenEnv = "ZENKIT_API_TOKEN"

const envPrefix = "ZKGEN_"

// ErrMissing is returned when a required setting is not resolved.
var ErrMissing = errors.New("missing required setting")

var keys = []string{
	KeyToken, KeyWorkspace, KeyOutput, KeyPackage, KeyModule, KeyEndpoint,
	KeyFormatter, KeySnapshot, KeyCache, KeyCacheTTL, KeyConcurrency,
	KeyLogJSON, KeyVerbose,
}

var builtin = map[string]any{
	KeyFormatter:   "gofmt -w",
	KeyCacheTTL:    time.Hour,
	KeyConcurrency: 4,
}

// Config is the resolved configuration.
type Config struct {
	Token       string
	Workspace   string
	Output      string
	Package     string
	Module      string
	Endpoint    string
	Formatter   string
	Snapshot    string
	Cache       string
	CacheTTL    time.Duration
	Concurrency int
	LogJSON     bool
	Verbose     bool

	// File is the config file that was read, if any.
	File string
}

// EnvVar returns the environment variable for key.
func EnvVar(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Load resolves every setting. Flags in fs that were set on the command
// line win; then the config file (--config, or zkgen.toml in the working
// directory or $HOME/.config/zkgen); then the environment. getenv defaults
// to os.Getenv.
func Load(fs *pflag.FlagSet, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	v := viper.New()

	// Environment values are defaults so a config file overrides them.
	for _, key := range keys {
		if def, ok := builtin[key]; ok {
			v.SetDefault(key, def)
		}
		if val := getenv(EnvVar(key)); val != "" {
			v.SetDefault(key, val)
		}
	}
	if v.GetString(KeyToken) == "" {
		if tok := getenv(TokenEnv); tok != "" {
			v.SetDefault(KeyToken, tok)
		}
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, errors.Wrap(err, "binding flags")
		}
	}

	file, err := readFile(v, fs, getenv)
	if err != nil {
		return nil, err
	}

	return &Config{
		Token:       v.GetString(KeyToken),
		Workspace:   v.GetString(KeyWorkspace),
		Output:      v.GetString(KeyOutput),
		Package:     v.GetString(KeyPackage),
		Module:      v.GetString(KeyModule),
		Endpoint:    v.GetString(KeyEndpoint),
		Formatter:   v.GetString(KeyFormatter),
		Snapshot:    v.GetString(KeySnapshot),
		Cache:       v.GetString(KeyCache),
		CacheTTL:    v.GetDuration(KeyCacheTTL),
		Concurrency: v.GetInt(KeyConcurrency),
		LogJSON:     v.GetBool(KeyLogJSON),
		Verbose:     v.GetBool(KeyVerbose),
		File:        file,
	}, nil
}

func readFile(v *viper.Viper, fs *pflag.FlagSet, getenv func(string) string) (string, error) {
	v.SetConfigType("toml")
	explicit := getenv(EnvVar(KeyConfig))
	if fs != nil {
		if f := fs.Lookup(KeyConfig); f != nil && f.Changed {
			explicit = f.Value.String()
		}
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return "", errors.Wrapf(err, "reading config %s", explicit)
		}
		return explicit, nil
	}

	v.SetConfigName("zkgen")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "zkgen"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", errors.Wrap(err, "reading config")
	}
	return v.ConfigFileUsed(), nil
}

// Require returns ErrMissing for the first of keys that is empty. Only
// string settings can be required.
func (c *Config) Require(keys ...string) error {
	values := map[string]string{
		KeyToken:     c.Token,
		KeyWorkspace: c.Workspace,
		KeyOutput:    c.Output,
		KeyPackage:   c.Package,
		KeyModule:    c.Module,
		KeyEndpoint:  c.Endpoint,
		KeySnapshot:  c.Snapshot,
		KeyCache:     c.Cache,
	}
	for _, key := range keys {
		if values[key] != "" {
			continue
		}
		hint := "pass --" + key + ", set " + key + " in zkgen.toml, or export " + EnvVar(key)
		if key == KeyToken {
			hint += " or " + TokenEnv
		}
		return errors.WithHint(errors.Wrap(ErrMissing, key), hint)
	}
	return nil
}
