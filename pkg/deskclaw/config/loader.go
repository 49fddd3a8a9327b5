// Package config – loader.go reads and writes config.yaml with secret
// handling: .env files are loaded first, ${VAR} references in the YAML are
// expanded, and API keys missing from the file are resolved from the OS
// keyring and environment.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

const (
	// keyringService is the service name used in the OS keyring.
	keyringService = "deskclaw"

	// KeyringLLMKey names the stored LLM API key.
	KeyringLLMKey = "llm_api_key"
)

// envVarPattern matches ${VAR_NAME} references in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads path into a Config layered over defaults. A missing file is
// not an error; you get defaults plus whatever secrets the environment and
// keyring provide.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run; defaults only.
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	}

	cfg.LLM = cfg.LLM.Effective()
	resolveSecrets(cfg)
	return cfg, nil
}

// Save writes cfg as YAML with owner-only permissions. The LLM key is
// replaced with an env reference when it matches a set variable, so real
// secrets stay out of the file.
func Save(cfg *Config, path string) error {
	sanitized := *cfg
	sanitized.LLM.APIKey = sanitizeSecret(cfg.LLM.APIKey, "DESKCLAW_API_KEY")

	data, err := yaml.Marshal(&sanitized)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// StoreKeyring saves a secret to the OS keyring.
func StoreKeyring(key, value string) error {
	return keyring.Set(keyringService, key, value)
}

// GetKeyring retrieves a secret from the OS keyring, "" if absent.
func GetKeyring(key string) string {
	val, err := keyring.Get(keyringService, key)
	if err != nil {
		return ""
	}
	return val
}

// DeleteKeyring removes a secret from the OS keyring.
func DeleteKeyring(key string) error {
	return keyring.Delete(keyringService, key)
}

// resolveSecrets fills empty API keys from the keyring and environment.
// Priority: keyring, then DESKCLAW_API_KEY / OPENAI_API_KEY, then the
// config file value already present.
func resolveSecrets(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		if key := GetKeyring(KeyringLLMKey); key != "" {
			cfg.LLM.APIKey = key
		} else if key := os.Getenv("DESKCLAW_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		}
	}
	if cfg.Weather.APIKey == "" {
		cfg.Weather.APIKey = os.Getenv("OPENWEATHER_API_KEY")
	}
	if cfg.News.APIKey == "" {
		cfg.News.APIKey = os.Getenv("NEWS_API_KEY")
	}
	if cfg.Stocks.APIKey == "" {
		cfg.Stocks.APIKey = os.Getenv("ALPHAVANTAGE_API_KEY")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("DESKCLAW_EMAIL_PASSWORD")
	}
	if cfg.Images.APIKey == "" {
		cfg.Images.APIKey = cfg.LLM.APIKey
	}
	if cfg.TTS.APIKey == "" {
		cfg.TTS.APIKey = cfg.LLM.APIKey
	}
	if cfg.Memory.Embeddings.APIKey == "" {
		cfg.Memory.Embeddings.APIKey = cfg.LLM.APIKey
	}
}

func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		// godotenv.Load does NOT overwrite existing env vars.
		_ = godotenv.Load(f)
	}
}

// expandEnvVars replaces ${VAR} references with environment values,
// leaving unset references in place.
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// sanitizeSecret replaces a real secret with an env var reference when the
// variable carries the same value.
func sanitizeSecret(value, envVar string) string {
	if value == "" || strings.HasPrefix(value, "${") {
		return value
	}
	if os.Getenv(envVar) == value {
		return "${" + envVar + "}"
	}
	return value
}
