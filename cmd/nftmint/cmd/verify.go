package cmd

import (
	"fmt"

	"github.com/pilacorp/go-nft-sdk/logger"
	"github.com/pilacorp/go-nft-sdk/metadata"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verifyConcurrency int

var verifyCmd = &cobra.Command{
	Use:   "verify [token-uri...]",
	Short: "Check that token URIs resolve to valid ERC-721 metadata",
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

		uris := args
		if len(uris) == 0 {
			uris = []string{cfg.TokenURI}
		}

		f, err := metadata.NewFetcher(cfg.IPFSGateway, nil)
		if err != nil {
			return err
		}

		reports, err := f.VerifyAll(cmd.Context(), uris, verifyConcurrency)
		if err != nil {
			return err
		}

		failed := 0
		for _, r := range reports {
			if r.Err != nil {
				failed++
				log.Error("metadata check failed", zap.String("token_uri", r.URI), zap.Error(r.Err))
				continue
			}
			log.Info("metadata ok",
				zap.String("token_uri", r.URI),
				zap.String("name", r.Metadata.Name),
				zap.String("image", r.Metadata.Image),
			)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d token URIs failed verification", failed, len(reports))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().IntVar(&verifyConcurrency, "concurrency", metadata.DefaultConcurrency, "number of URIs fetched in parallel")
}
