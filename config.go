package tcmb

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/tcmb/tcmb-go/transport"
)

// EnvPrefix prefixes every environment variable the client reads, e.g.
// TCMB_API_KEY, TCMB_BASE_URL and TCMB_TIMEOUT.
const EnvPrefix = "TCMB"

// Settings holds configuration read from the environment and the config file.
type Settings struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoadSettings reads settings from the environment and from a tcmb.yaml file
// in the working directory or $HOME/.config/tcmb. Environment variables win
// over the file. When path is set, that file is read instead and must exist.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("api_key", "")
	v.SetDefault("base_url", transport.DefaultBaseURL)
	v.SetDefault("timeout", 30*time.Second)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tcmb")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tcmb")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &Settings{
		APIKey:  v.GetString("api_key"),
		BaseURL: v.GetString("base_url"),
		Timeout: v.GetDuration("timeout"),
	}, nil
}

// applySettings fills the fields no option has set.
func applySettings(config *clientConfig, s *Settings) {
	if config.apiKey == "" {
		config.apiKey = s.APIKey
	}
	if !config.baseURLSet && s.BaseURL != "" {
		config.baseURL = s.BaseURL
	}
	if !config.timeoutSet && s.Timeout > 0 {
		config.timeout = s.Timeout
	}
}
