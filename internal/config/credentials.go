package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

// KeyringService is the OS keyring service API keys are stored under,
// with the provider name as the user.
const KeyringService = "video-narrator"

// Credentials are the provider API keys
type Credentials struct {
	GeminiKeys []string
	OpenAIKey  string
}

// LoadEnv loads envFile into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnv(envFile string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	return nil
}

// ResolveCredentials reads GEMINI_API_KEYS (comma separated) and
// OPENAI_API_KEY, falling back to the OS keyring for each. Keyring failures
// are returned alongside whatever could be resolved.
func ResolveCredentials() (Credentials, error) {
	var creds Credentials

	gemini, gerr := lookup("GEMINI_API_KEYS", ProviderGemini)
	for _, k := range strings.Split(gemini, ",") {
		if k = strings.TrimSpace(k); k != "" {
			creds.GeminiKeys = append(creds.GeminiKeys, k)
		}
	}

	openai, oerr := lookup("OPENAI_API_KEY", ProviderOpenAI)
	creds.OpenAIKey = openai

	return creds, errors.Join(gerr, oerr)
}

func lookup(env, provider string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v, nil
	}

	v, err := keyring.Get(KeyringService, provider)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) || errors.Is(err, keyring.ErrUnsupportedPlatform) {
			return "", nil
		}
		return "", fmt.Errorf("read %s key from keyring: %w", provider, err)
	}
	return strings.TrimSpace(v), nil
}
