package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"voicechat/backend/internal/config"
	"voicechat/backend/internal/embedding"
	"voicechat/backend/internal/indexer"
	"voicechat/backend/internal/log"
	"voicechat/backend/internal/storage"
)

var watch bool

var rootCmd = &cobra.Command{
	Use:           "indexer",
	Short:         "Maintain the document search index",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Chunk, embed and upload documents to the search index",
	Long: `Walk a file or directory, split every eligible file into chunks,
embed each chunk with the configured embedding provider and merge the
results into the Azure AI Search index.

With --watch the command keeps running and re-ingests files as they are
created or modified.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep watching the path and re-ingest changed files")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	root := args[0]

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateIngestion(); err != nil {
		return err
	}
	if err := log.Init(cfg.Server.LogFormat); err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := embedding.NewEmbedderFactory(cfg).CreateEmbedder(ctx)
	if err != nil {
		return err
	}
	if err := embedding.ValidateEmbedderConnection(ctx, embedder); err != nil {
		return err
	}

	ingester := indexer.NewIngester(embedder, storage.NewAzureSearchStore(cfg.Search))
	n, err := ingester.IngestPath(ctx, root)
	if err != nil {
		return err
	}
	log.Logger.Infow("ingestion complete", "path", root, "documents", n)

	if !watch {
		return nil
	}

	w, err := indexer.NewWatcher()
	if err != nil {
		return err
	}
	return w.Run(ctx, root, func(path string) {
		if _, err := ingester.IngestFile(ctx, path); err != nil {
			log.Logger.Errorw("re-ingest failed", "path", path, "error", err)
		}
	})
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Logger.Warnw("could not read .env file", "error", err)
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Logger.Errorw("indexer failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
}
