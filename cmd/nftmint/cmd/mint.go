package cmd

import (
	"fmt"

	"github.com/pilacorp/go-nft-sdk/blockchain"
	"github.com/pilacorp/go-nft-sdk/logger"
	"github.com/pilacorp/go-nft-sdk/minter"
	"github.com/pilacorp/go-nft-sdk/nftcontract"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var mintStrict bool

var mintCmd = &cobra.Command{
	Use:   "mint [token-uri]",
	Short: "Mint one NFT",
	Long: `Fetches the account nonce, signs a mintNFT(PUBLIC_KEY, token-uri) transaction
and broadcasts it once. The transaction hash is printed; inclusion is not awaited.

Failures are logged and the command still exits 0 unless --strict is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log, err := logger.New(cfg.LogEnv)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		tokenURI := cfg.TokenURI
		if len(args) == 1 {
			tokenURI = args[0]
		}

		value, err := cfg.MintValue()
		if err != nil {
			return err
		}
		gasPrice, err := cfg.GasPriceWei()
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		fail := func(msg string, err error) error {
			log.Error(msg, zap.Error(err))
			if mintStrict {
				return err
			}
			return nil
		}

		provider, err := newSigner(cfg)
		if err != nil {
			return fail("failed to load signer", err)
		}

		artifact, err := nftcontract.LoadArtifact(cfg.ArtifactPath)
		if err != nil {
			return fail("failed to load contract artifact", err)
		}

		client, err := blockchain.Dial(ctx, cfg.RPCURL())
		if err != nil {
			return fail("failed to connect to the network", err)
		}
		defer client.Close()

		m, err := minter.New(ctx, minter.Options{
			Backend:         client,
			Signer:          provider,
			Recipient:       cfg.PublicKey,
			ContractAddress: cfg.ContractAddress,
			ChainID:         cfg.NetworkChainID(),
			GasLimit:        cfg.GasLimit,
			GasPrice:        gasPrice,
			Value:           value,
			Artifact:        artifact,
			Logger:          log.With(zap.String("network", cfg.Network)),
		})
		if err != nil {
			return fail("failed to prepare minter", err)
		}

		res, err := m.Mint(ctx, tokenURI)
		if err != nil {
			// Already logged by the minter.
			if mintStrict {
				return err
			}
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tx hash: %s\n", res.TxHash)
		fmt.Fprintln(out, "check the provider mempool for inclusion status")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mintCmd)
	mintCmd.Flags().BoolVar(&mintStrict, "strict", false, "exit non-zero when the mint fails")
}
