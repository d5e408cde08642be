package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"jarvis/internal/logger"
)

// EnvPrefix marks environment variables read into the configuration map.
const EnvPrefix = "JARVIS_"

// ConfigPaths reports which configuration files were found.
type ConfigPaths struct {
	ConfigDir       string
	ConfigEnvPath   string
	ConfigEnvLoaded bool
	LocalEnvPath    string
	LocalEnvLoaded  bool
}

// ConfigurationService merges configuration from .env files and the process environment.
// Priority (highest to lowest): environment variables > local .env > config .env.
type ConfigurationService struct {
	initialized bool

	mu        sync.RWMutex
	values    map[string]string
	paths     ConfigPaths
	configDir string
	workDir   string
	fixed     bool
	environ   func() []string
}

// NewConfigurationService creates a service reading ~/.config/jarvis/.env, ./.env and the process environment.
func NewConfigurationService() *ConfigurationService {
	return &ConfigurationService{environ: os.Environ}
}

// NewConfigurationServiceWithSources creates a service reading the given directories and environment.
// Empty directories are skipped.
func NewConfigurationServiceWithSources(configDir, workDir string, environ []string) *ConfigurationService {
	return &ConfigurationService{
		configDir: configDir,
		workDir:   workDir,
		fixed:     true,
		environ:   func() []string { return environ },
	}
}

// Name returns the service name "configuration" for registration.
func (c *ConfigurationService) Name() string {
	return "configuration"
}

// Initialize loads every configuration source. Missing files are not an error.
func (c *ConfigurationService) Initialize() error {
	if c.initialized {
		return nil
	}
	if err := c.load(); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func (c *ConfigurationService) load() error {
	values := make(map[string]string)
	paths := ConfigPaths{ConfigDir: c.resolveConfigDir()}

	if paths.ConfigDir != "" {
		paths.ConfigEnvPath = filepath.Join(paths.ConfigDir, ".env")
		loaded, err := loadDotEnv(paths.ConfigEnvPath, values)
		if err != nil {
			return fmt.Errorf("failed to load config .env: %w", err)
		}
		paths.ConfigEnvLoaded = loaded
	}

	if workDir := c.resolveWorkDir(); workDir != "" {
		paths.LocalEnvPath = filepath.Join(workDir, ".env")
		loaded, err := loadDotEnv(paths.LocalEnvPath, values)
		if err != nil {
			return fmt.Errorf("failed to load local .env: %w", err)
		}
		paths.LocalEnvLoaded = loaded
	}

	for _, kv := range c.environ() {
		key, value, ok := strings.Cut(kv, "=")
		if ok && isConfigKey(key) {
			values[key] = value
		}
	}

	c.mu.Lock()
	c.values = values
	c.paths = paths
	c.mu.Unlock()

	logger.ServiceOperation("configuration", "load", "values", len(values),
		"config_env", paths.ConfigEnvLoaded, "local_env", paths.LocalEnvLoaded)
	return nil
}

func (c *ConfigurationService) resolveConfigDir() string {
	if c.fixed {
		return c.configDir
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "jarvis")
}

func (c *ConfigurationService) resolveWorkDir() string {
	if c.fixed {
		return c.workDir
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return dir
}

// isConfigKey selects JARVIS_* settings and provider API keys from the process environment.
func isConfigKey(key string) bool {
	return strings.HasPrefix(key, EnvPrefix) || strings.HasSuffix(key, "_API_KEY")
}

func loadDotEnv(path string, into map[string]string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	for k, v := range envMap {
		into[k] = v
	}
	return true, nil
}

// GetConfigValue returns a configuration value, or "" when it is not set.
func (c *ConfigurationService) GetConfigValue(key string) (string, error) {
	if !c.initialized {
		return "", fmt.Errorf("configuration service not initialized")
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[key], nil
}

// SetConfigValue overrides a configuration value for the lifetime of the process.
func (c *ConfigurationService) SetConfigValue(key, value string) error {
	if !c.initialized {
		return fmt.Errorf("configuration service not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

// GetAPIKey returns the API key for provider, trying JARVIS_<PROVIDER>_API_KEY before <PROVIDER>_API_KEY.
func (c *ConfigurationService) GetAPIKey(provider string) (string, error) {
	if !c.initialized {
		return "", fmt.Errorf("configuration service not initialized")
	}

	upper := strings.ToUpper(provider)
	providerKey := EnvPrefix + upper + "_API_KEY"
	legacyKey := upper + "_API_KEY"

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, key := range []string{providerKey, legacyKey} {
		if v := strings.TrimSpace(c.values[key]); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("API key not configured for provider %s (expected %s or %s)", provider, providerKey, legacyKey)
}

// ConfiguredProviders returns the providers among candidates that have an API key.
func (c *ConfigurationService) ConfiguredProviders(candidates []string) []string {
	var out []string
	for _, p := range candidates {
		if _, err := c.GetAPIKey(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfiguration reloads every source.
func (c *ConfigurationService) LoadConfiguration() error {
	if !c.initialized {
		return fmt.Errorf("configuration service not initialized")
	}
	return c.load()
}

// GetConfigurationPaths reports the .env files consulted during the last load.
func (c *ConfigurationService) GetConfigurationPaths() (ConfigPaths, error) {
	if !c.initialized {
		return ConfigPaths{}, fmt.Errorf("configuration service not initialized")
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paths, nil
}

// Keys returns the loaded configuration keys, sorted.
func (c *ConfigurationService) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
