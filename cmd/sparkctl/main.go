// sparkctl inspects and adjusts point balances directly against the store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yx-elite/social-media-content-generator/app"
	"github.com/yx-elite/social-media-content-generator/app/config"
	"github.com/yx-elite/social-media-content-generator/app/logging"
	"github.com/yx-elite/social-media-content-generator/app/points"
	"github.com/yx-elite/social-media-content-generator/app/store"
)

type openFunc func(ctx context.Context) (store.Store, func() error, error)

func openFromEnv(ctx context.Context) (store.Store, func() error, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logging.Init(cfg.Logs)
	return app.OpenStore(ctx, cfg.DB)
}

func newRootCmd(open openFunc, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "sparkctl",
		Short:         "Operate on SocialSpark point balances",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	withStore := func(cmd *cobra.Command, fn func(ctx context.Context, st store.Store) error) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		st, closeStore, err := open(ctx)
		if err != nil {
			return err
		}
		defer closeStore()
		return fn(ctx, st)
	}

	root.AddCommand(&cobra.Command{
		Use:   "balance <user-id>",
		Short: "Print a user's point balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, st store.Store) error {
				balance, err := points.NewGuard(st).Balance(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", args[0], balance)
				return nil
			})
		},
	})

	var reason string
	grant := &cobra.Command{
		Use:   "grant <user-id> <points>",
		Short: "Credit points to a user",
		Long: `Credit points to a user outside of a subscription purchase, for
support refunds or goodwill credits.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.Atoi(args[1])
			if err != nil || amount <= 0 {
				return fmt.Errorf("points must be a positive integer, got %q", args[1])
			}
			return withStore(cmd, func(ctx context.Context, st store.Store) error {
				balance, err := points.NewGuard(st).Grant(ctx, args[0], amount, reason)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "granted %d to %s, balance %d\n", amount, args[0], balance)
				return nil
			})
		},
	}
	grant.Flags().StringVar(&reason, "reason", "manual", "label recorded on the points_granted metric")
	root.AddCommand(grant)

	root.AddCommand(&cobra.Command{
		Use:   "spend <user-id> <points>",
		Short: "Debit points from a user",
		Long: `Debit points from a user, e.g. to settle a points_reconciliation job
for a generation that was delivered without being charged. Refused when the
balance is too low.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.Atoi(args[1])
			if err != nil || amount <= 0 {
				return fmt.Errorf("points must be a positive integer, got %q", args[1])
			}
			return withStore(cmd, func(ctx context.Context, st store.Store) error {
				balance, err := points.NewGuard(st).Spend(ctx, args[0], amount)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "spent %d from %s, balance %d\n", amount, args[0], balance)
				return nil
			})
		},
	})

	var limit int
	history := &cobra.Command{
		Use:   "history <user-id>",
		Short: "List a user's latest generations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 || limit > 50 {
				return fmt.Errorf("--limit must be between 1 and 50")
			}
			return withStore(cmd, func(ctx context.Context, st store.Store) error {
				rows, err := st.ListContent(ctx, args[0], limit)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTYPE\tCHARGED\tCREATED\tPROMPT")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", r.ID, r.ContentType, r.PointsCharged, r.CreatedAt.Format(time.RFC3339), r.Prompt)
				}
				return w.Flush()
			})
		},
	}
	history.Flags().IntVar(&limit, "limit", 10, "number of generations to show (1-50)")
	root.AddCommand(history)

	return root
}

func main() {
	if err := newRootCmd(openFromEnv, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
