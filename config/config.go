// Package config loads the minting process configuration from .env files, an
// optional YAML network file and the environment.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default values
const (
	DefaultNetwork         = "ropsten"
	DefaultGasLimit        = 500000
	DefaultMintValue       = "1"
	DefaultContractAddress = "0x55B0b498B2B0d001635ABD51dF428374c5D59d61"
	DefaultTokenURI        = "https://gateway.pinata.cloud/ipfs/QmQxTqyrgpbLom65XWtXaCbRMZoCxwiiT3EByT2jWy5UQt"
	DefaultIPFSGateway     = "https://gateway.pinata.cloud/ipfs/"
	DefaultLogEnv          = "development"
	DefaultConfigName      = "nftmint"
)

// Environment variable names
const (
	EnvPrivateKey      = "PRIVATE_KEY"
	EnvPublicKey       = "PUBLIC_KEY"
	EnvAPIURL          = "API_URL"
	EnvChainID         = "CHAIN_ID"
	EnvNetwork         = "NETWORK"
	EnvContractAddress = "CONTRACT_ADDRESS"
)

// DefaultEnvFiles are loaded in order; earlier files and the process
// environment take precedence.
var DefaultEnvFiles = []string{".env", ".env.local"}

// NetworkConfig describes one entry of the network table.
type NetworkConfig struct {
	URL     string `mapstructure:"url"`
	ChainID int64  `mapstructure:"chain_id"`
}

// RemoteSignerConfig points at an external signing service. When URL is set
// the private key is not used.
type RemoteSignerConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// Config holds everything the minting workflow needs. It is built once at
// startup and passed explicitly.
type Config struct {
	Network         string                   `mapstructure:"network"`
	Networks        map[string]NetworkConfig `mapstructure:"networks"`
	APIURL          string                   `mapstructure:"api_url"`
	ChainID         int64                    `mapstructure:"chain_id"`
	PrivateKey      string                   `mapstructure:"private_key"`
	PublicKey       string                   `mapstructure:"public_key"`
	ContractAddress string                   `mapstructure:"contract_address"`
	ArtifactPath    string                   `mapstructure:"artifact"`
	GasLimit        uint64                   `mapstructure:"gas_limit"`
	GasPrice        string                   `mapstructure:"gas_price"`
	Value           string                   `mapstructure:"value"`
	TokenURI        string                   `mapstructure:"token_uri"`
	IPFSGateway     string                   `mapstructure:"ipfs_gateway"`
	RemoteSigner    RemoteSignerConfig       `mapstructure:"remote_signer"`
	LogEnv          string                   `mapstructure:"log_env"`
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file. When empty, nftmint.yaml is looked
	// up in . and ./config and may be absent.
	ConfigFile string
	// EnvFiles are dotenv files to load. Nil means DefaultEnvFiles. Missing
	// files are skipped.
	EnvFiles []string
}

// Load reads dotenv files, the optional YAML file and the environment.
// Credentials and the endpoint are not required here.
func Load(opts LoadOptions) (*Config, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = DefaultEnvFiles
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Network = strings.ToLower(cfg.Network)

	return &cfg, nil
}

func loadEnvFiles(files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network", DefaultNetwork)
	// Hosted endpoints embed API keys, so they come from API_URL or YAML.
	v.SetDefault("networks", map[string]any{
		"hardhat": map[string]any{"url": "http://127.0.0.1:8545", "chain_id": 31337},
		"ropsten": map[string]any{"url": "", "chain_id": 3},
		"rinkeby": map[string]any{"url": "", "chain_id": 4},
		"sepolia": map[string]any{"url": "", "chain_id": 11155111},
	})

	// Every env-backed key needs a default so Unmarshal sees it.
	v.SetDefault("api_url", "")
	v.SetDefault("chain_id", 0)
	v.SetDefault("private_key", "")
	v.SetDefault("public_key", "")
	v.SetDefault("contract_address", DefaultContractAddress)
	v.SetDefault("artifact", "")
	v.SetDefault("gas_limit", DefaultGasLimit)
	v.SetDefault("gas_price", "")
	v.SetDefault("value", DefaultMintValue)
	v.SetDefault("token_uri", DefaultTokenURI)
	v.SetDefault("ipfs_gateway", DefaultIPFSGateway)
	v.SetDefault("remote_signer.url", "")
	v.SetDefault("remote_signer.api_key", "")
	v.SetDefault("log_env", DefaultLogEnv)
}

// SelectedNetwork returns the entry of the active network, if any.
func (c *Config) SelectedNetwork() (NetworkConfig, bool) {
	n, ok := c.Networks[c.Network]
	return n, ok
}

// RPCURL returns API_URL when set, otherwise the active network's URL.
func (c *Config) RPCURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	n, _ := c.SelectedNetwork()
	return n.URL
}

// NetworkChainID returns the explicit chain ID, otherwise the active
// network's. Zero means it has to be asked from the node, which is always
// the case when API_URL replaces the network's endpoint without CHAIN_ID.
func (c *Config) NetworkChainID() int64 {
	if c.ChainID != 0 {
		return c.ChainID
	}
	if c.APIURL != "" {
		return 0
	}
	n, _ := c.SelectedNetwork()
	return n.ChainID
}

// MintValue returns the wei attached to each mint.
func (c *Config) MintValue() (*big.Int, error) {
	return parseWei("value", c.Value, big.NewInt(0))
}

// GasPriceWei returns the configured gas price, or nil when it should be
// suggested by the node.
func (c *Config) GasPriceWei() (*big.Int, error) {
	return parseWei("gas_price", c.GasPrice, nil)
}

// Validate rejects malformed values. Missing credentials and endpoint are
// left for the signer and the RPC client to report.
func (c *Config) Validate() error {
	if c.Network != "" && c.APIURL == "" {
		if _, ok := c.SelectedNetwork(); !ok {
			return fmt.Errorf("unknown network %q", c.Network)
		}
	}
	if c.ChainID < 0 {
		return errors.New("chain ID must not be negative")
	}
	if c.ContractAddress != "" && !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("invalid contract address %q", c.ContractAddress)
	}
	if c.PublicKey != "" && !common.IsHexAddress(c.PublicKey) {
		return fmt.Errorf("invalid public key address %q", c.PublicKey)
	}
	if _, err := c.MintValue(); err != nil {
		return err
	}
	if _, err := c.GasPriceWei(); err != nil {
		return err
	}
	return nil
}

func parseWei(name, s string, fallback *big.Int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q: must be a non-negative integer in wei", name, s)
	}
	return v, nil
}
