package env

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env holds process configuration. Values come from the environment,
// optionally seeded from a .env file in the working directory.
type Env struct {
	ServerPort int    `env:"SERVER_PORT" envDefault:"3001"`
	DebugMode  bool   `env:"DEBUG_MODE" envDefault:"false"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`

	// APIToken is the shared secret for mutating endpoints. Empty means
	// all requests are authorized.
	APIToken string `env:"WINNER_API_TOKEN"`

	DBPath string `env:"DB_PATH" envDefault:"./data/spinwheel.db"`

	// SpinCommand is the chat command that requests a spin.
	SpinCommand string `env:"SPIN_COMMAND" envDefault:"!spin"`

	// Twitch credentials for the EventSub intake and chat replies.
	// The intake stays disabled when these are empty.
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	TwitchUserID string `env:"TWITCH_USER_ID"`

	// CallbackURL overrides the OAuth redirect URI. Defaults to
	// http://localhost:<SERVER_PORT>/callback when empty.
	CallbackURL string `env:"CALLBACK_URL"`
}

// Value is the loaded configuration, populated by LoadEnv.
var Value Env

// LoadEnv reads .env (if present) and parses the environment into Value.
func LoadEnv() error {
	// Missing .env is fine; the environment may be set externally.
	_ = godotenv.Load()

	if err := env.Parse(&Value); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}
