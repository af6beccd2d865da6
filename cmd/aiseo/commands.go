package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/aiseo/internal/analytics"
	"github.com/TobiSchelling/aiseo/internal/database"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

func withEngine(fn func(e *analytics.Engine) error) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(newEngine(db))
}

func trendMark(trend string) string {
	switch trend {
	case analytics.TrendUp:
		return green("▲ up")
	case analytics.TrendDown:
		return red("▼ down")
	default:
		return faint("– stable")
	}
}

func signed(v float64, unit string) string {
	s := fmt.Sprintf("%+.1f%s", v, unit)
	switch {
	case v > 0:
		return green(s)
	case v < 0:
		return red(s)
	default:
		return faint(s)
	}
}

func positionLabel(p float64) string {
	if p == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", p)
}

// --- report command ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the visibility dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *analytics.Engine) error {
			kpis, err := e.Dashboard()
			if err != nil {
				return err
			}
			brands, err := e.ListBrands()
			if err != nil {
				return err
			}
			sugg, err := e.Suggestions()
			if err != nil {
				return err
			}

			fmt.Printf("%s  %s vs %s\n\n", bold("Visibility report"), kpis.CurrentPeriod, kpis.PreviousPeriod)
			fmt.Printf("  Visibility:    %.1f%% (%s)\n", kpis.Visibility.Value, signed(kpis.Visibility.Change, " pts"))
			fmt.Printf("  Avg. position: %s (%s)\n", positionLabel(kpis.AvgPosition.Value), signed(kpis.AvgPosition.Change, ""))
			fmt.Printf("  Prompts:       %d\n", kpis.TotalQueries.Value)
			fmt.Printf("  Citations:     %d this month, %d sources overall\n", kpis.TotalSources.Value, kpis.TotalSources.Total)
			fmt.Printf("  Score:         %s\n", cyan(sugg.Score))

			fmt.Printf("\n%s\n", bold("Brands"))
			for _, b := range brands {
				name := b.Name
				if b.Type == database.BrandPrimary {
					name = cyan(name + " *")
				}
				fmt.Printf("  %-22s %6.1f%%  pos %-4s  %-10s %s\n",
					name, b.Visibility, positionLabel(b.AvgPosition), b.Sentiment, trendMark(b.Trend))
			}

			fmt.Printf("\n%s\n", bold("Suggestions"))
			for _, s := range sugg.Suggestions {
				priority := faint(s.Priority)
				switch s.Priority {
				case "high":
					priority = red(s.Priority)
				case "medium":
					priority = yellow(s.Priority)
				}
				fmt.Printf("  [%s] %s (%s %s)\n", priority, s.Title, s.Stat, s.StatLabel)
				fmt.Printf("        %s\n", s.Action)
			}
			return nil
		})
	},
}

// --- brands command ---

var brandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "Manage tracked brands",
}

var brandsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked brands",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *analytics.Engine) error {
			brands, err := e.ListBrands()
			if err != nil {
				return err
			}
			if len(brands) == 0 {
				fmt.Println("No brands defined. Add one with: aiseo brands add")
				return nil
			}
			for _, b := range brands {
				icon := " "
				if b.Type == database.BrandPrimary {
					icon = "*"
				}
				fmt.Printf("  %s %-14s %-18s %6.1f%%  %s\n", icon, b.ID, b.Name, b.Visibility, trendMark(b.Trend))
			}
			return nil
		})
	},
}

var (
	brandColor      string
	brandVariations []string
	brandPrimary    bool
)

var brandsAddCmd = &cobra.Command{
	Use:   "add [id] [name]",
	Short: "Track a new competitor and backfill its mentions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *analytics.Engine) error {
			in := analytics.BrandInput{
				ID:         args[0],
				Name:       args[1],
				Type:       database.BrandCompetitor,
				Color:      brandColor,
				Variations: brandVariations,
			}
			if brandPrimary {
				in.Type = database.BrandPrimary
			}
			b, err := e.CreateBrand(in)
			if err != nil {
				return err
			}
			fmt.Printf("Added brand %s (%s)\n", bold(b.Name), b.ID)
			fmt.Printf("  Matches: %s\n", strings.Join(b.Variations, ", "))
			fmt.Printf("  Backfilled mentions: %d across %d prompts\n", b.TotalMentions, b.TotalPromptsMentionedIn)
			return nil
		})
	},
}

var brandsRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Stop tracking a competitor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *analytics.Engine) error {
			if err := e.DeleteBrand(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed brand %s\n", args[0])
			return nil
		})
	},
}

func init() {
	brandsAddCmd.Flags().StringVar(&brandColor, "color", "", "Chart color, e.g. #f97316")
	brandsAddCmd.Flags().StringSliceVar(&brandVariations, "variation", nil, "Spelling to match in answers (repeatable)")
	brandsAddCmd.Flags().BoolVar(&brandPrimary, "primary", false, "Mark as the primary brand")

	brandsCmd.AddCommand(brandsListCmd)
	brandsCmd.AddCommand(brandsAddCmd)
	brandsCmd.AddCommand(brandsRemoveCmd)
}

// --- prompts command ---

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect recorded prompts",
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompts with their aggregate visibility",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *analytics.Engine) error {
			queries, err := e.ListQueries()
			if err != nil {
				return err
			}
			if len(queries) == 0 {
				fmt.Println("No prompts recorded. Load data with: aiseo seed")
				return nil
			}
			for _, q := range queries {
				fmt.Printf("  %-9s %6.1f%%  %d runs  %s\n", q.ID, q.Visibility, q.TotalRuns, q.Query)
			}
			return nil
		})
	},
}

var promptsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show every run of a prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *analytics.Engine) error {
			q, err := e.GetQuery(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n", bold(q.ID), q.Query)
			fmt.Printf("  Visibility %.1f%% over %d runs\n", q.Visibility, q.TotalRuns)
			for _, run := range q.Runs {
				fmt.Printf("\n%s %s\n", bold(fmt.Sprintf("Run %d", run.RunNumber)), faint(run.ScrapedAt))
				for _, b := range run.Brands {
					if !b.Mentioned {
						fmt.Printf("  %s %s\n", faint("·"), faint(b.BrandName))
						continue
					}
					pos := ""
					if b.Position > 0 {
						pos = fmt.Sprintf(" #%d", b.Position)
					}
					fmt.Printf("  %s %s%s (%s)\n", green("✓"), b.BrandName, pos, b.Sentiment)
				}
				for _, s := range run.Sources {
					fmt.Printf("  [%d] %s %s\n", s.CitationOrder, s.URL, faint(s.Type))
				}
			}
			return nil
		})
	},
}

func init() {
	promptsCmd.AddCommand(promptsListCmd)
	promptsCmd.AddCommand(promptsShowCmd)
}
