package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

func historyCommand() *cobra.Command {
	var (
		cardID, search string
		since, until   string
		limit, offset  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the sign-out history log",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := buildHistoryFilter(cardID, search, since, until)
			if err != nil {
				return err
			}

			return withApp(func(ctx context.Context, rt runtime) error {
				events, err := rt.app.QueryHistory(ctx, filter, types.Page{Limit: limit, Offset: offset})
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tCARD\tEVENT\tHOLDER\tNOTES")
				for _, ev := range events {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						ev.Timestamp.Local().Format("2006-01-02 15:04"),
						ev.CardLabel, ev.Type, ev.Holder, ev.Notes)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&cardID, "card", "", "filter by exact card id")
	cmd.Flags().StringVarP(&search, "search", "s", "", "substring match on label/holder/notes/id")
	cmd.Flags().StringVar(&since, "since", "", "only events on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "only events on or before this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of events (0 = all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of events to skip")
	return cmd
}

func exportCommand() *cobra.Command {
	var (
		cardID, search string
		since, until   string
		out            string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the history log as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := buildHistoryFilter(cardID, search, since, until)
			if err != nil {
				return err
			}

			return withApp(func(ctx context.Context, rt runtime) error {
				w := os.Stdout
				if out != "" && out != "-" {
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}

				n, err := rt.app.ExportHistoryCSV(ctx, w, filter)
				if err != nil {
					return err
				}
				if out != "" && out != "-" {
					fmt.Printf("exported %d events to %s\n", n, out)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&cardID, "card", "", "filter by exact card id")
	cmd.Flags().StringVarP(&search, "search", "s", "", "substring match on label/holder/notes/id")
	cmd.Flags().StringVar(&since, "since", "", "only events on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "only events on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func buildHistoryFilter(cardID, search, since, until string) (types.HistoryFilter, error) {
	filter := types.HistoryFilter{CardID: cardID, Search: search}

	if since != "" {
		t, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return types.HistoryFilter{}, fmt.Errorf("bad --since date %q: %w", since, err)
		}
		filter.Since = &t
	}
	if until != "" {
		t, err := time.ParseInLocation("2006-01-02", until, time.Local)
		if err != nil {
			return types.HistoryFilter{}, fmt.Errorf("bad --until date %q: %w", until, err)
		}
		// Inclusive through the end of the day.
		end := t.Add(24*time.Hour - time.Millisecond)
		filter.Until = &end
	}
	return filter, nil
}
