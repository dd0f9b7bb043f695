package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	keyAPIURL     = "api_url"
	keyToken      = "token"
	keyCacheFile  = "cache_file"
	keyCacheRedis = "cache_redis"
	keyOffline    = "offline"
)

// settings is the CLI configuration: ~/.agenda.yaml, overridden by
// AGENDA_* environment variables and flags.
type settings struct {
	v    *viper.Viper
	path string
}

func defaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agenda.yaml"
	}
	return filepath.Join(home, ".agenda.yaml")
}

func loadSettings(path string) (*settings, error) {
	if path == "" {
		path = defaultSettingsPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault(keyAPIURL, "http://localhost:8080")
	v.SetDefault(keyCacheFile, filepath.Join(filepath.Dir(path), ".agenda", "cache.json"))
	v.SetDefault(keyOffline, false)

	v.SetEnvPrefix("AGENDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	return &settings{v: v, path: path}, nil
}

func (s *settings) APIURL() string     { return s.v.GetString(keyAPIURL) }
func (s *settings) Token() string      { return s.v.GetString(keyToken) }
func (s *settings) CacheFile() string  { return s.v.GetString(keyCacheFile) }
func (s *settings) CacheRedis() string { return s.v.GetString(keyCacheRedis) }
func (s *settings) Offline() bool      { return s.v.GetBool(keyOffline) }

// SaveToken stores the session token in the config file, which is kept
// readable by the owner only.
func (s *settings) SaveToken(token string) error {
	s.v.Set(keyToken, token)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict %s: %w", s.path, err)
	}
	return nil
}
