package sui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ClientConfig is the sui cli client.yaml configuration.
type ClientConfig struct {
	Keystore struct {
		File string `yaml:"File"`
	} `yaml:"keystore"`
	Envs          []EnvConfig `yaml:"envs"`
	ActiveEnv     string      `yaml:"active_env"`
	ActiveAddress string      `yaml:"active_address"`
}

type EnvConfig struct {
	Alias string `yaml:"alias"`
	RPC   string `yaml:"rpc"`
	WS    string `yaml:"ws,omitempty"`
}

func DefaultClientConfigPath() string {
	return filepath.Join("~", ".sui", "sui_config", "client.yaml")
}

// ExpandTilde replaces a leading ~ with the user's home directory.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func LoadClientConfig(path string) (*ClientConfig, error) {
	path = ExpandTilde(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading sui client config: %s: %w", path, err)
	}
	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing sui client config: %s: %w", path, err)
	}
	cfg.Keystore.File = ExpandTilde(cfg.Keystore.File)
	return &cfg, nil
}

// Env returns the environment with the given alias, or the active environment when alias is empty.
func (c *ClientConfig) Env(alias string) (EnvConfig, error) {
	if alias == "" {
		alias = c.ActiveEnv
	}
	for _, env := range c.Envs {
		if env.Alias == alias {
			return env, nil
		}
	}
	return EnvConfig{}, fmt.Errorf("%w: %q", ErrUnknownEnv, alias)
}
