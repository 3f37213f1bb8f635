package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pilacorp/go-nft-sdk/config"
	"github.com/pilacorp/go-nft-sdk/minter"
	"github.com/pilacorp/go-nft-sdk/signer"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	envFiles []string
	network  string
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nftmint",
	Short: "Mint OctopusFun NFTs from the command line",
	Long: `nftmint signs and submits mintNFT transactions to a deployed ERC-721 contract.

Credentials and the RPC endpoint come from the environment (PRIVATE_KEY,
PUBLIC_KEY, API_URL), optionally through a .env file, and the network table
from nftmint.yaml.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./nftmint.yaml or ./config/nftmint.yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env,.env.local)")
	rootCmd.PersistentFlags().StringVarP(&network, "network", "n", "", "network from the network table, overrides NETWORK")
}

func loadConfig() (*config.Config, error) {
	opts := config.LoadOptions{ConfigFile: cfgFile}
	if len(envFiles) > 0 {
		opts.EnvFiles = envFiles
	}

	cfg, err := config.Load(opts)
	if err != nil {
		return nil, err
	}
	if network != "" {
		cfg.Network = network
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newSigner picks the remote signer when one is configured, otherwise the
// local private key. Key problems are signing failures.
func newSigner(cfg *config.Config) (signer.SignerProvider, error) {
	if cfg.RemoteSigner.URL != "" {
		p, err := signer.NewRemoteProvider(cfg.RemoteSigner.URL, cfg.RemoteSigner.APIKey, cfg.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", minter.ErrSign, err)
		}
		return p, nil
	}

	p, err := signer.NewDefaultProvider(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", minter.ErrSign, err)
	}
	return p, nil
}
