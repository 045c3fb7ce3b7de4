package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func signoutCommand() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "signout <card-id> <holder>",
		Short: "Sign an available card out to a holder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, rt runtime) error {
				card, err := rt.app.SignOut(ctx, args[0], args[1], notes)
				if err != nil {
					return err
				}
				fmt.Printf("%q signed out to %s\n", card.Label, card.CurrentHolder)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "optional notes for the sign-out")
	return cmd
}

func returnCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "return <card-id>",
		Short: "Mark a signed-out card as returned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, rt runtime) error {
				card, err := rt.app.ReturnCard(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("%q returned\n", card.Label)
				return nil
			})
		},
	}
}

func lostCommand() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "lost <card-id>",
		Short: "Mark a card as lost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, rt runtime) error {
				card, err := rt.app.MarkLost(ctx, args[0], notes)
				if err != nil {
					return err
				}
				fmt.Printf("%q marked lost\n", card.Label)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "optional notes (e.g. last known location)")
	return cmd
}

func foundCommand() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "found <card-id>",
		Short: "Mark a lost card as found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, rt runtime) error {
				card, err := rt.app.MarkFound(ctx, args[0], notes)
				if err != nil {
					return err
				}
				fmt.Printf("%q is available again\n", card.Label)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "optional notes (e.g. where it turned up)")
	return cmd
}
