package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pilacorp/go-nft-sdk/config"
	"github.com/pilacorp/go-nft-sdk/signer"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the address and public key of the configured private key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		p, err := signer.NewDefaultProvider(cfg.PrivateKey)
		if err != nil {
			return err
		}

		return printAccount(cmd, cfg, p)
	},
}

func printAccount(cmd *cobra.Command, cfg *config.Config, p *signer.DefaultProvider) error {
	out := cmd.OutOrStdout()
	addr := common.HexToAddress(p.GetAddress())

	fmt.Fprintf(out, "address:    %s\n", addr.Hex())
	fmt.Fprintf(out, "public key: 0x%s\n", hex.EncodeToString(p.PublicKey()))

	if cfg.PublicKey != "" && !strings.EqualFold(cfg.PublicKey, addr.Hex()) {
		fmt.Fprintf(out, "warning: %s is %s, which does not match the private key; tokens will be minted to it\n",
			config.EnvPublicKey, cfg.PublicKey)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(accountCmd)
}
