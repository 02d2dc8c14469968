package main

import (
	"fmt"

	"aira/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Embed every stored property for similar-property search",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePostgres(cfg); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openStores(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer st.close()

		llm, err := service.NewLLMClient(ctx, &cfg.LLM, log)
		if err != nil {
			return err
		}
		embedder := embedderFor(llm, st)
		if embedder == nil {
			return fmt.Errorf("LLM provider %s cannot embed (is the API key set?)", cfg.LLM.Provider)
		}

		properties, err := service.NewPropertyService(ctx, st.properties, st.vectors, embedder, nil, cfg.Pinata.GatewayURL, log)
		if err != nil {
			return err
		}
		defer properties.Close()

		n, err := properties.Backfill(ctx)
		if err != nil {
			return err
		}
		log.Info("🧮 Embeddings stored", zap.Int("properties", n))
		return nil
	},
}
