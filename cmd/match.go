package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var matchCmd = &cobra.Command{
	Use:   "match <mentee-id>",
	Short: "Print the best mentors for a mentee",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		n, _ := cmd.Flags().GetInt("n-matches")
		match(args[0], n)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().IntP("n-matches", "n", 5, "number of mentors to return")
	matchCmd.Flags().Bool("introduce", false, "draft an introduction for every match with the configured AI provider")
	viper.BindPFlag("ai.enabled", matchCmd.Flags().Lookup("introduce"))
}

func match(menteeID string, n int) {
	ctx := context.Background()

	logger, config := setup()
	defer logger.Sync() //nolint:errcheck

	svc, err := buildServices(ctx, config, logger)
	if err != nil {
		logger.Fatal("building services", zap.Error(err))
	}
	defer svc.close()

	matches, err := svc.matcher.Match(ctx, menteeID, n)
	if err != nil {
		logger.Fatal("matching", zap.String("mentee_id", menteeID), zap.Error(err))
	}

	if len(matches) == 0 {
		logger.Info("exiting", zap.String("reason", "no mentors matched"))
		return
	}

	if err := printJSON(matches); err != nil {
		logger.Fatal("printing matches", zap.Error(err))
	}
}
