package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var searchCmd = &cobra.Command{
	Use:   "search <collection> <query>...",
	Short: "Search a collection by relevance",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		searchCollection(args[0], strings.Join(args[1:], " "), limit)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("limit", "l", 0, "maximum number of records to print (0 prints all)")
}

func searchCollection(collection, query string, limit int) {
	ctx := context.Background()

	logger, config := setup()
	defer logger.Sync() //nolint:errcheck

	svc, err := buildServices(ctx, config, logger)
	if err != nil {
		logger.Fatal("building services", zap.Error(err))
	}
	defer svc.close()

	results, err := svc.search.Search(ctx, collection, query, limit)
	if err != nil {
		logger.Fatal("searching", zap.String("collection", collection), zap.Error(err))
	}

	logger.Info("search finished", zap.String("query", query), zap.Int("count", len(results)))

	if err := printJSON(results); err != nil {
		logger.Fatal("printing results", zap.Error(err))
	}
}
