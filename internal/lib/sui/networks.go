package sui

import (
	"fmt"

	"github.com/lisuify/lisuify/internal/lib/misc"
)

type NetworkConfig struct {
	Name        string
	FullNodeURL string
	FaucetURL   string
}

func (n NetworkConfig) String() string {
	return fmt.Sprintf("Name: %s, FullNodeURL: %s, FaucetURL: %s", n.Name, n.FullNodeURL, n.FaucetURL)
}

// GetNetworkConfig returns the built-in defaults for a network, with SUI_RPC_URL and SUI_FAUCET_URL
// overrides applied.
func GetNetworkConfig(network string) NetworkConfig {
	cfg := getDefaults(network)
	if nodeURL := misc.GetSecret("SUI_RPC_URL"); nodeURL != "" {
		cfg.FullNodeURL = nodeURL
	}
	if faucetURL := misc.GetSecret("SUI_FAUCET_URL"); faucetURL != "" {
		cfg.FaucetURL = faucetURL
	}
	return cfg
}

// ClientNetworkConfig is GetNetworkConfig for env with the full node taken from the client
// config's entry for env, unless SUI_RPC_URL (or SUI_RPC_URL_FILE) overrides it.
func ClientNetworkConfig(clientCfg *ClientConfig, env string) NetworkConfig {
	cfg := GetNetworkConfig(env)
	if misc.GetSecret("SUI_RPC_URL") != "" {
		return cfg
	}
	if envCfg, err := clientCfg.Env(env); err == nil {
		cfg.FullNodeURL = envCfg.RPC
	}
	return cfg
}

func getDefaults(network string) NetworkConfig {
	cfg := NetworkConfig{Name: network}
	switch network {
	case "mainnet":
		cfg.FullNodeURL = "https://fullnode.mainnet.sui.io:443"
	case "testnet":
		cfg.FullNodeURL = "https://fullnode.testnet.sui.io:443"
		cfg.FaucetURL = "https://faucet.testnet.sui.io"
	case "devnet":
		cfg.FullNodeURL = "https://fullnode.devnet.sui.io:443"
		cfg.FaucetURL = "https://faucet.devnet.sui.io"
	case "localnet":
		cfg.FullNodeURL = "http://127.0.0.1:9000"
		cfg.FaucetURL = "http://127.0.0.1:9123"
	}
	return cfg
}

func IsKnownNetwork(network string) bool {
	switch network {
	case "mainnet", "testnet", "devnet", "localnet":
		return true
	}
	return false
}
