// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/cardwise/cardwise-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete cardwise configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// API is the message service connection.
	API APIConfig `toml:"api" json:"api"`

	// Chat controls refresh cadence and send behavior.
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Voice controls speech input.
	Voice VoiceConfig `toml:"voice" json:"voice"`

	// Archive controls the local transcript archive.
	Archive ArchiveConfig `toml:"archive" json:"archive"`

	// UI configuration.
	UI UIConfig `toml:"ui" json:"ui"`

	// Server configures the local development message service.
	Server ServerConfig `toml:"server" json:"server"`
}

// APIConfig contains message service connection configuration.
type APIConfig struct {
	// BaseURL is the message service root, e.g. http://localhost:8787
	BaseURL string `toml:"base_url" json:"base_url"`
	// AuthToken is an optional bearer token sent on every request.
	AuthToken string `toml:"auth_token" json:"auth_token"`
	// TimeoutSecs is the per-request timeout in seconds.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// MaxRetries is the retry budget for read requests. Writes are never
	// retried regardless of this setting.
	MaxRetries int `toml:"max_retries" json:"max_retries"`
}

// ChatConfig contains refresh cadence configuration.
type ChatConfig struct {
	// PollIntervalMs is the background refresh cadence in milliseconds.
	PollIntervalMs int `toml:"poll_interval_ms" json:"poll_interval_ms"`
	// FollowupRefreshMs is the delay before the post-send second refresh.
	// 0 disables the followup refresh.
	FollowupRefreshMs int `toml:"followup_refresh_ms" json:"followup_refresh_ms"`
	// IdleAfterMins is minutes without input before polling slows.
	IdleAfterMins int `toml:"idle_after_mins" json:"idle_after_mins"`
	// IdlePollIntervalMs is the slowed cadence while idle.
	IdlePollIntervalMs int `toml:"idle_poll_interval_ms" json:"idle_poll_interval_ms"`
}

// VoiceConfig contains speech input configuration.
type VoiceConfig struct {
	// Enabled turns the voice affordance on. Voice still requires a usable
	// recognizer on the platform; without one the affordance stays hidden.
	Enabled bool `toml:"enabled" json:"enabled"`
	// Recognizer overrides recognizer auto-detection with an explicit
	// command path.
	Recognizer string `toml:"recognizer" json:"recognizer"`
}

// ArchiveConfig contains transcript archive configuration.
type ArchiveConfig struct {
	// Enabled controls periodic transcript archiving.
	Enabled bool `toml:"enabled" json:"enabled"`
	// Dir overrides the archive directory (default ~/.cardwise/transcripts).
	Dir string `toml:"dir" json:"dir"`
	// MaxTranscripts caps archived conversations (0 = unlimited).
	MaxTranscripts int `toml:"max_transcripts" json:"max_transcripts"`
	// IntervalSecs is how often dirty transcripts are written.
	IntervalSecs int `toml:"interval_secs" json:"interval_secs"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the color theme name: "dark", "light", or "auto".
	Theme string `toml:"theme" json:"theme"`
	// CompactMode reduces message padding.
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
	// ShowTimestamps renders a timestamp on each message.
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
	// Markdown renders assistant messages through the markdown renderer.
	Markdown bool `toml:"markdown" json:"markdown"`
}

// ServerConfig contains the development message service configuration.
type ServerConfig struct {
	// Listen is the bind address for `cardwise serve`.
	Listen string `toml:"listen" json:"listen"`
	// DBPath is the sqlite database path (empty = ~/.cardwise/cardwise.db).
	DBPath string `toml:"db_path" json:"db_path"`
	// ResponseDelayMs simulates assistant thinking time before the canned
	// reply is inserted.
	ResponseDelayMs int `toml:"response_delay_ms" json:"response_delay_ms"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: "0.3.0",
		API: APIConfig{
			BaseURL:     "http://localhost:8787",
			TimeoutSecs: 30,
			MaxRetries:  3,
		},
		Chat: ChatConfig{
			PollIntervalMs:     2000,
			FollowupRefreshMs:  1500,
			IdleAfterMins:      5,
			IdlePollIntervalMs: 30000,
		},
		Voice: VoiceConfig{
			Enabled: true,
		},
		Archive: ArchiveConfig{
			Enabled:        true,
			MaxTranscripts: 100,
			IntervalSecs:   30,
		},
		UI: UIConfig{
			Theme:          "dark",
			ShowTimestamps: true,
			Markdown:       true,
		},
		Server: ServerConfig{
			Listen:          "localhost:8787",
			ResponseDelayMs: 800,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the cardwise configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".cardwise"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 to protect auth tokens.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm() != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", info.Mode().Perm(), err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults. Environment
// overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finishLoad applies env overrides, defaults, and validation.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# cardwise configuration file")
	fmt.Fprintln(file, "# Generated by cardwise - edit with care")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash.
func SaveJSON(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors aggregates all validation failures.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "api.base_url",
				Message: "must be a valid http or https URL",
			})
		}
	}
	if c.API.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "api.timeout_secs", Message: "must not be negative"})
	}
	if c.API.MaxRetries < 0 || c.API.MaxRetries > 10 {
		errs = append(errs, ValidationError{Field: "api.max_retries", Message: "must be between 0 and 10"})
	}

	// A sub-250ms poll would outrun the refresh coalescing window.
	if c.Chat.PollIntervalMs != 0 && c.Chat.PollIntervalMs < 250 {
		errs = append(errs, ValidationError{Field: "chat.poll_interval_ms", Message: "must be at least 250"})
	}
	if c.Chat.FollowupRefreshMs < 0 {
		errs = append(errs, ValidationError{Field: "chat.followup_refresh_ms", Message: "must not be negative"})
	}
	if c.Chat.IdleAfterMins < 0 {
		errs = append(errs, ValidationError{Field: "chat.idle_after_mins", Message: "must not be negative"})
	}

	if c.Archive.MaxTranscripts < 0 {
		errs = append(errs, ValidationError{Field: "archive.max_transcripts", Message: "must not be negative"})
	}

	switch c.UI.Theme {
	case "", "dark", "light", "auto":
	default:
		errs = append(errs, ValidationError{Field: "ui.theme", Message: "must be dark, light, or auto"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = defaults.API.MaxRetries
	}
	if c.Chat.PollIntervalMs == 0 {
		c.Chat.PollIntervalMs = defaults.Chat.PollIntervalMs
	}
	if c.Chat.IdleAfterMins == 0 {
		c.Chat.IdleAfterMins = defaults.Chat.IdleAfterMins
	}
	if c.Chat.IdlePollIntervalMs == 0 {
		c.Chat.IdlePollIntervalMs = defaults.Chat.IdlePollIntervalMs
	}
	if c.Archive.IntervalSecs == 0 {
		c.Archive.IntervalSecs = defaults.Archive.IntervalSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.Server.Listen == "" {
		c.Server.Listen = defaults.Server.Listen
	}
	if c.Server.ResponseDelayMs == 0 {
		c.Server.ResponseDelayMs = defaults.Server.ResponseDelayMs
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies CARDWISE_* environment variables over the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if baseURL := os.Getenv("CARDWISE_API_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if token := os.Getenv("CARDWISE_API_TOKEN"); token != "" {
		c.API.AuthToken = token
	}
	if poll := os.Getenv("CARDWISE_POLL_MS"); poll != "" {
		if v, err := strconv.Atoi(poll); err == nil {
			c.Chat.PollIntervalMs = v
		}
	}
	if followup := os.Getenv("CARDWISE_FOLLOWUP_MS"); followup != "" {
		if v, err := strconv.Atoi(followup); err == nil {
			c.Chat.FollowupRefreshMs = v
		}
	}
	if theme := os.Getenv("CARDWISE_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if voice := os.Getenv("CARDWISE_VOICE"); voice != "" {
		c.Voice.Enabled = voice == "1" || strings.ToLower(voice) == "true"
	}
	if dir := os.Getenv("CARDWISE_ARCHIVE_DIR"); dir != "" {
		c.Archive.Dir = dir
	}
	if listen := os.Getenv("CARDWISE_LISTEN"); listen != "" {
		c.Server.Listen = listen
	}
	if db := os.Getenv("CARDWISE_DB"); db != "" {
		c.Server.DBPath = db
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "chat.poll_interval_ms").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}
	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation.
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}
	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go
// field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(strVal == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"api.base_url",
		"api.auth_token",
		"api.timeout_secs",
		"api.max_retries",
		"chat.poll_interval_ms",
		"chat.followup_refresh_ms",
		"chat.idle_after_mins",
		"chat.idle_poll_interval_ms",
		"voice.enabled",
		"voice.recognizer",
		"archive.enabled",
		"archive.dir",
		"archive.max_transcripts",
		"archive.interval_secs",
		"ui.theme",
		"ui.compact_mode",
		"ui.show_timestamps",
		"ui.markdown",
		"server.listen",
		"server.db_path",
		"server.response_delay_ms",
	}
}

// =============================================================================
// COPY AND DISPLAY
// =============================================================================

// Clone creates a copy of the configuration. Config holds only value types,
// so a struct copy is a full copy.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
// SECURITY: Redacts the auth token to keep it out of logs and error output.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.API.AuthToken != "" {
		safe.API.AuthToken = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		globalConfigMu.Lock()
		defer globalConfigMu.Unlock()
		if globalConfig != nil {
			// SetGlobal ran before first access.
			return
		}
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets global config state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
