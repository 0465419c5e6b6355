package network

import "fmt"

// RPCConfig holds the connection parameters for a consensus node's JSON-RPC interface.
type RPCConfig struct {
	URL      string `json:"url"`
	User     string `json:"user"`
	Password string `json:"password"`
	Network  string `json:"network"`
}

// NetworkPresets contains default RPC endpoints for local networks.
// Mainnet has no preset and must be configured explicitly.
var NetworkPresets = map[string]RPCConfig{
	"regtest": {URL: "http://localhost:3223", User: "mobilecoind", Password: "mobilecoind"},
	"testnet": {URL: "http://localhost:3224", User: "mobilecoind", Password: "mobilecoind"},
}

// ResolveConfig merges RPC configuration from three sources with decreasing priority:
//  1. explicit flags
//  2. environment variables (MOBILECOIND_RPC_URL, MOBILECOIND_RPC_USER, MOBILECOIND_RPC_PASS)
//  3. network presets (regtest/testnet only)
func ResolveConfig(flags *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{Network: network}

	if preset, ok := NetworkPresets[network]; ok {
		result = preset
		result.Network = network
	}

	if v := env["MOBILECOIND_RPC_URL"]; v != "" {
		result.URL = v
	}
	if v := env["MOBILECOIND_RPC_USER"]; v != "" {
		result.User = v
	}
	if v := env["MOBILECOIND_RPC_PASS"]; v != "" {
		result.Password = v
	}

	if flags != nil {
		if flags.URL != "" {
			result.URL = flags.URL
		}
		if flags.User != "" {
			result.User = flags.User
		}
		if flags.Password != "" {
			result.Password = flags.Password
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("network: %s requires an explicit consensus node URL (set MOBILECOIND_RPC_URL)", network)
	}
	return &result, nil
}
