package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/underdogdevs/mentormatch/internal/matcher"
	"github.com/underdogdevs/mentormatch/internal/profile"
)

const (
	PromptMore = "Show more matches"
	PromptBack = "back"
	PromptExit = "exit"
)

var errExit = errors.New("exit requested")

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Pick mentees interactively and inspect their matches",
	Run: func(cmd *cobra.Command, _ []string) {
		n, _ := cmd.Flags().GetInt("n-matches")
		browse(n)
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().IntP("n-matches", "n", 5, "number of mentors to show per page")
}

func browse(n int) {
	ctx := context.Background()

	logger, config := setup()
	defer logger.Sync() //nolint:errcheck

	svc, err := buildServices(ctx, config, logger)
	if err != nil {
		logger.Fatal("building services", zap.Error(err))
	}
	defer svc.close()

	for {
		menteeID, err := pickMentee(ctx, svc)
		if err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := showMatches(ctx, svc.matcher, logger, menteeID, n); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func pickMentee(ctx context.Context, svc *services) (string, error) {
	records, err := svc.store.QueryAll(ctx, profile.CollectionMentees, nil)
	if err != nil {
		return "", fmt.Errorf("listing mentees: %w", err)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID() < records[j].ID() })

	labels := make([]string, 0, len(records)+1)
	ids := make(map[string]string, len(records))
	for _, rec := range records {
		label := menteeLabel(rec)
		labels = append(labels, label)
		ids[label] = rec.ID()
	}

	menteePrompt := promptui.Select{
		Label: "Choose a mentee and press ENTER",
		Items: append(labels, PromptExit),
		Size:  15,
	}

	_, selected, err := menteePrompt.Run()
	if err != nil {
		return "", err
	}

	if selected == PromptExit {
		return "", errExit
	}

	return ids[selected], nil
}

func menteeLabel(rec profile.Record) string {
	mentee, err := profile.FromRecord(rec, profile.RoleMentee)
	if err != nil {
		return rec.ID()
	}
	return fmt.Sprintf("%s %s / %s / %s", mentee.ID, mentee.Name(), mentee.Subject, mentee.Level)
}

func showMatches(ctx context.Context, m *matcher.Matcher, logger *zap.Logger, menteeID string, n int) error {
	if n <= 0 {
		n = 5
	}

	for count := n; ; count += n {
		matches, err := m.Match(ctx, menteeID, count)
		if err != nil {
			return err
		}

		logger.Info("current list of matches", zap.String("mentee_id", menteeID), zap.Int("count", len(matches)))

		items := make([]string, 0, len(matches)+2)
		for i, match := range matches {
			items = append(items, fmt.Sprintf("%d. %s %s / %s / %.3f",
				i+1, match.Profile.ID, match.Profile.Name(), match.Profile.Subject, match.Score,
			))
		}
		if len(matches) == count {
			items = append(items, PromptMore)
		}
		items = append(items, PromptBack, PromptExit)

		matchPrompt := promptui.Select{
			Label: fmt.Sprintf("Matches for %s", menteeID),
			Items: items,
			Size:  15,
		}

		_, action, err := matchPrompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptMore:
			continue
		case PromptBack:
			return nil
		case PromptExit:
			return errExit
		default:
			// Selecting a match prints the full mentor record.
			for i, match := range matches {
				if items[i] == action {
					if err := printJSON(match.Record); err != nil {
						return err
					}
				}
			}
			count -= n
		}
	}
}
