package cmd

import (
	"fmt"
	"math/big"

	"github.com/pilacorp/go-nft-sdk/blockchain"
	"github.com/pilacorp/go-nft-sdk/nftcontract"
	"github.com/spf13/cobra"
)

var tokenURICmd = &cobra.Command{
	Use:   "token-uri <token-id>",
	Short: "Read the metadata URI of a minted token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tokenID, ok := new(big.Int).SetString(args[0], 10)
		if !ok {
			return fmt.Errorf("invalid token id %q", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		artifact, err := nftcontract.LoadArtifact(cfg.ArtifactPath)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client, err := blockchain.Dial(ctx, cfg.RPCURL())
		if err != nil {
			return err
		}
		defer client.Close()

		chainID := cfg.NetworkChainID()
		if chainID == 0 {
			id, err := client.ChainID(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch chain ID: %w", err)
			}
			chainID = id.Int64()
		}

		contract, err := nftcontract.NewContract(&nftcontract.Config{
			ContractAddress: cfg.ContractAddress,
			ChainID:         chainID,
			Artifact:        artifact,
		}, client)
		if err != nil {
			return err
		}

		uri, err := contract.TokenURI(ctx, tokenID)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), uri)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenURICmd)
}
