package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbonduro/parrotops/internal/domain"
)

func binCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bin",
		Short: "Inspect bins",
	}
	show := &cobra.Command{
		Use:   "show BIN",
		Short: "Print a bin and the lots stored in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newClient(v)
			if err != nil {
				return err
			}
			bin, lots, err := c.Bin(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "%s zone=%s status=%s\n", bin.BinID, bin.Zone, bin.Status); err != nil {
				return err
			}
			return printLots(out, lots)
		},
	}
	cmd.AddCommand(show)
	return cmd
}

func lotsCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lots",
		Short: "Look up lots",
	}
	show := &cobra.Command{
		Use:   "show LOT",
		Short: "Print one lot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newClient(v)
			if err != nil {
				return err
			}
			lot, err := c.Lot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printLots(cmd.OutOrStdout(), []*domain.Lot{lot})
		},
	}
	find := &cobra.Command{
		Use:   "find QUERY",
		Short: "Search lots by id, title or buyer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newClient(v)
			if err != nil {
				return err
			}
			lots, err := c.FindLots(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printLots(cmd.OutOrStdout(), lots)
		},
	}
	cmd.AddCommand(show, find)
	return cmd
}

func journalCommand(v *viper.Viper) *cobra.Command {
	var (
		subject string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print recent changes made through the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newClient(v)
			if err != nil {
				return err
			}
			entries, err := c.Journal(cmd.Context(), subject, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.Subject, e.Detail, e.Actor)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Only changes to this lot, bin or tab")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries")
	return cmd
}

func printLots(w io.Writer, lots []*domain.Lot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, l := range lots {
		bin := l.BinID
		if bin == "" {
			bin = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.LotID, bin, l.Title, l.Status, l.Buyer)
	}
	return tw.Flush()
}
