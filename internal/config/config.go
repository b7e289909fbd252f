package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/hhs-labs/hcli/internal/branding"
	clierr "github.com/hhs-labs/hcli/internal/errors"
	"github.com/hhs-labs/hcli/internal/log"
	"github.com/hhs-labs/hcli/internal/registry"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Keys accepted in config.yaml and by `config set`.
const (
	KeyRegistry        = "registry"
	KeyUseMirror       = "use_mirror"
	KeyRegistryTimeout = "registry_timeout"
	KeySkipUpdateCheck = "skip_update_check"
	keyTargetPath      = "target_path"
)

// Keys lists the settable keys in sorted order.
func Keys() []string {
	keys := []string{KeyRegistry, KeyUseMirror, KeyRegistryTimeout, KeySkipUpdateCheck}
	sort.Strings(keys)
	return keys
}

// Overrides are values supplied on the command line.
type Overrides struct {
	TargetPath    string
	Debug         bool
	NoUpdateCheck bool
}

// Settings is the resolved configuration for one invocation.
type Settings struct {
	UserHome string
	// HomePath is the CLI home, UserHome/<CLI_HOME or .hcli>.
	HomePath string
	// TargetPath bypasses the package cache when set.
	TargetPath      string
	Debug           bool
	LogLevel        string
	Registry        string
	RegistryTimeout time.Duration
	SkipUpdateCheck bool
}

// ChildEnv returns the variables exported to dispatched commands.
func (s *Settings) ChildEnv() map[string]string {
	env := map[string]string{
		branding.EnvVar("HOME_PATH"): s.HomePath,
		"LOG_LEVEL":                  s.LogLevel,
	}
	if s.TargetPath != "" {
		env[branding.EnvVar("TARGET_PATH")] = s.TargetPath
	}
	return env
}

// FilePath returns the config file inside homePath.
func FilePath(homePath string) string {
	return filepath.Join(homePath, fileName+"."+fileType)
}

// Resolve builds Settings from the environment and o.
func Resolve(o Overrides) (*Settings, error) {
	userHome, err := os.UserHomeDir()
	if err != nil || userHome == "" {
		return nil, clierr.Wrap(clierr.EConfig, "user home directory not found", err)
	}

	if err := LoadDotenv(filepath.Join(userHome, ".env")); err != nil {
		return nil, err
	}

	homeName := os.Getenv(branding.EnvVar("HOME"))
	if homeName == "" {
		homeName = branding.HomeDir()
	}
	homePath := homeName
	if !filepath.IsAbs(homePath) {
		homePath = filepath.Join(userHome, homeName)
	}

	v, err := load(homePath)
	if err != nil {
		return nil, err
	}

	s := &Settings{
		UserHome:        userHome,
		HomePath:        homePath,
		TargetPath:      o.TargetPath,
		Debug:           o.Debug,
		Registry:        v.GetString(KeyRegistry),
		RegistryTimeout: v.GetDuration(KeyRegistryTimeout),
		SkipUpdateCheck: o.NoUpdateCheck || v.GetBool(KeySkipUpdateCheck),
	}
	if s.TargetPath == "" {
		s.TargetPath = v.GetString(keyTargetPath)
	}
	if s.TargetPath != "" {
		if s.TargetPath, err = filepath.Abs(s.TargetPath); err != nil {
			return nil, clierr.Wrap(clierr.EConfig, "resolving target path", err)
		}
	}
	if s.Registry == "" {
		s.Registry = branding.DefaultRegistry()
		if v.GetBool(KeyUseMirror) {
			s.Registry = branding.MirrorRegistry()
		}
	}
	if s.RegistryTimeout <= 0 {
		s.RegistryTimeout = registry.DefaultTimeout
	}

	s.LogLevel = os.Getenv("LOG_LEVEL")
	if s.Debug {
		s.LogLevel = "verbose"
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	return s, nil
}

// load reads config.yaml under homePath and layers CLI_* variables on top.
func load(homePath string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(FilePath(homePath))
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.AutomaticEnv()
	v.SetDefault(KeyUseMirror, false)
	v.SetDefault(KeyRegistryTimeout, registry.DefaultTimeout)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, clierr.Wrap(clierr.EConfig, fmt.Sprintf("reading %s", FilePath(homePath)), err)
	}
	return v, nil
}

// LoadDotenv exports the KEY=value pairs of a dotenv file into the process
// environment. Keys keep their case and variables that are already set win.
// A missing file is fine.
func LoadDotenv(path string) error {
	env, err := gotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return clierr.Wrap(clierr.EConfig, fmt.Sprintf("reading %s", path), err)
	}

	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, env[name]); err != nil {
			return clierr.Wrap(clierr.EConfig, fmt.Sprintf("exporting %s", name), err)
		}
	}
	log.Verbose("config", "loaded %s", path)
	return nil
}

// Get returns the value of key from the config file and environment, or ""
// when unset.
func Get(homePath, key string) (string, error) {
	v, err := load(homePath)
	if err != nil {
		return "", err
	}
	return v.GetString(key), nil
}

// Set writes key to the config file under homePath, creating it as needed.
func Set(homePath, key, value string) error {
	if !isKey(key) {
		return clierr.Newf(clierr.EConfig, "unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := os.MkdirAll(homePath, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", homePath, err)
	}

	v := viper.New()
	v.SetConfigFile(FilePath(homePath))
	v.SetConfigType(fileType)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return clierr.Wrap(clierr.EConfig, "reading config file", err)
	}

	v.Set(key, value)
	if err := v.WriteConfigAs(FilePath(homePath)); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func isKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}
