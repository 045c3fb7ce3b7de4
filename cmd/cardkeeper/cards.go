package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cetilab/cardkeeper/internal/tracker/app"
	"github.com/cetilab/cardkeeper/internal/tracker/service"
	"github.com/cetilab/cardkeeper/internal/tracker/store"
	"github.com/cetilab/cardkeeper/internal/tracker/types"
)

func listCommand() *cobra.Command {
	var search, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, rt runtime) error {
				first, err := rt.app.FirstRun(ctx)
				if err != nil {
					return err
				}
				if first {
					fmt.Println("No cards yet. Run 'cardkeeper seed' for the preset set, or 'cardkeeper add' to start blank.")
					return nil
				}

				cards, err := rt.app.ListCards(ctx, types.CardFilter{
					Search: search,
					Status: types.Status(status),
				})
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCODE\tLABEL\tSTATUS\tHOLDER\tSIGNED OUT\tNOTES / LOCATION")
				for _, c := range cards {
					signedOut := ""
					if c.SignedOutAt != nil {
						signedOut = c.SignedOutAt.Local().Format("2006-01-02 15:04")
					}
					// When the card is home, the useful column is where it lives.
					notes := c.Notes
					if c.Status == types.StatusAvailable {
						notes = c.Location
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						c.ID, c.Code, c.Label, c.Status, c.CurrentHolder, signedOut, notes)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "substring match on label/holder/notes/code/location")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (Available|Out|Lost)")
	return cmd
}

func addCommand() *cobra.Command {
	var id, code, location, notes string

	cmd := &cobra.Command{
		Use:   "add <label>",
		Short: "Add a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, rt runtime) error {
				card, err := rt.app.CreateCard(ctx, service.CreateParams{
					ID:       id,
					Label:    args[0],
					Code:     code,
					Location: location,
					Notes:    notes,
				})
				if err != nil {
					return err
				}
				fmt.Printf("added %q (id %s)\n", card.Label, card.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "explicit card id (default: auto-assigned)")
	cmd.Flags().StringVar(&code, "code", "", "4-digit short code")
	cmd.Flags().StringVar(&location, "location", "", "home location")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes")
	return cmd
}

func editCommand() *cobra.Command {
	var label, code, location, notes string

	cmd := &cobra.Command{
		Use:   "edit <card-id>",
		Short: "Edit a card's label, code, location, or notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := store.CardFields{}
			if cmd.Flags().Changed("label") {
				fields.Label = &label
			}
			if cmd.Flags().Changed("code") {
				fields.Code = &code
			}
			if cmd.Flags().Changed("location") {
				fields.Location = &location
			}
			if cmd.Flags().Changed("notes") {
				fields.Notes = &notes
			}

			return withApp(func(ctx context.Context, rt runtime) error {
				card, err := rt.app.UpdateCard(ctx, args[0], fields)
				if err != nil {
					return err
				}
				fmt.Printf("updated %q\n", card.Label)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "new label")
	cmd.Flags().StringVar(&code, "code", "", "new 4-digit code (empty clears)")
	cmd.Flags().StringVar(&location, "location", "", "new home location")
	cmd.Flags().StringVar(&notes, "notes", "", "new notes")
	return cmd
}

func removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <card-id>",
		Short: "Remove a card (its history is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, rt runtime) error {
				if err := rt.app.DeleteCard(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("removed")
				return nil
			})
		},
	}
}

func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the preset card set (first run only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, rt runtime) error {
				n, err := rt.app.SeedPresets(ctx, app.DefaultPresets())
				if err != nil {
					return err
				}
				if n == 0 {
					fmt.Println("database already has cards; nothing seeded")
					return nil
				}
				fmt.Printf("seeded %d preset cards\n", n)
				return nil
			})
		},
	}
}

func auditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Verify every card's status against its history log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, rt runtime) error {
				drifts, err := rt.auditor.CheckOnce(ctx)
				if err != nil {
					return err
				}
				if len(drifts) == 0 {
					fmt.Println("ok: all card statuses match their history")
					return nil
				}
				for _, d := range drifts {
					fmt.Printf("drift: card %s stored=%s computed=%s\n", d.CardID, d.Stored, d.Computed)
				}
				return fmt.Errorf("%d card(s) out of sync", len(drifts))
			})
		},
	}
}
