package rendezvous

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

type Config struct {
	CLI CLIConfig `toml:"cli"`
}

type CLIConfig struct {
	CoordinatorURL  string `toml:"coordinator_url"`
	TLSVerification bool   `toml:"tls_verification"`
	UseCBOR         bool   `toml:"use_cbor"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
