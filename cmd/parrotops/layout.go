package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbonduro/parrotops/internal/domain"
	"github.com/vbonduro/parrotops/internal/editor"
)

func layoutCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Export or apply the whole zone layout",
	}

	var format string
	export := &cobra.Command{
		Use:   "export",
		Short: "Print the active zone layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := newEditor(cmd, v)
			if err != nil {
				return err
			}
			return exportLayout(cmd.OutOrStdout(), ed, format)
		},
	}
	export.Flags().StringVar(&format, "format", "yaml", "Output format (yaml, json)")

	apply := &cobra.Command{
		Use:   "apply FILE",
		Short: "Replace the zone layout with the zones in FILE (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := readLayoutFile(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			ed, err := newEditor(cmd, v)
			if err != nil {
				return err
			}
			ed.ToggleEdit()
			if err := ed.ReplaceZones(layout.Zones); err != nil {
				return err
			}
			n, err := ed.Save(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %d zones\n", n)
			return err
		},
	}

	cmd.AddCommand(export, apply)
	return cmd
}

func exportLayout(w io.Writer, ed *editor.Editor, format string) error {
	return editor.WriteLayout(w, domain.ZoneLayout{
		Warehouse: ed.Warehouse(),
		Zones:     ed.Zones(),
	}, format)
}

func readLayoutFile(stdin io.Reader, path string) (domain.ZoneLayout, error) {
	if path == "-" {
		return editor.ReadLayout(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.ZoneLayout{}, fmt.Errorf("failed to open layout: %w", err)
	}
	defer func() { _ = f.Close() }()
	return editor.ReadLayout(f)
}

func zoneCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zone",
		Short: "Edit a single zone and save the layout",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a 10x10 ft zone at the origin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return editZone(cmd, v, func(ed *editor.Editor) (domain.Zone, error) {
				return ed.AddZone()
			})
		},
	}

	var x, y float64
	move := &cobra.Command{
		Use:   "move ZONE",
		Short: "Move a zone to x,y in feet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editZone(cmd, v, func(ed *editor.Editor) (domain.Zone, error) {
				ed.ToggleEdit()
				return ed.MoveZone(args[0], x, y)
			})
		},
	}
	move.Flags().Float64Var(&x, "x", 0, "Left edge in feet")
	move.Flags().Float64Var(&y, "y", 0, "Top edge in feet")

	var w, h float64
	resize := &cobra.Command{
		Use:   "resize ZONE",
		Short: "Set a zone's width and height in feet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editZone(cmd, v, func(ed *editor.Editor) (domain.Zone, error) {
				ed.ToggleEdit()
				return ed.SetZoneSize(args[0], w, h)
			})
		},
	}
	resize.Flags().Float64Var(&w, "w", 10, "Width in feet")
	resize.Flags().Float64Var(&h, "h", 10, "Height in feet")

	rename := &cobra.Command{
		Use:   "rename ZONE NEW_ID",
		Short: "Give a zone a new id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editZone(cmd, v, func(ed *editor.Editor) (domain.Zone, error) {
				ed.ToggleEdit()
				return ed.RenameZone(args[0], args[1])
			})
		},
	}

	deactivate := &cobra.Command{
		Use:   "deactivate ZONE",
		Short: "Mark a zone inactive so it is no longer shown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editZone(cmd, v, func(ed *editor.Editor) (domain.Zone, error) {
				ed.ToggleEdit()
				return ed.DeactivateZone(args[0])
			})
		},
	}

	cmd.AddCommand(add, move, resize, rename, deactivate)
	return cmd
}

// editZone loads the map, applies one edit and saves the whole layout.
func editZone(cmd *cobra.Command, v *viper.Viper, edit func(*editor.Editor) (domain.Zone, error)) error {
	ed, err := newEditor(cmd, v)
	if err != nil {
		return err
	}
	z, err := edit(ed)
	if err != nil {
		return err
	}
	if _, err := ed.Save(cmd.Context()); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s x=%g y=%g w=%g h=%g\n", z.ZoneID, z.X, z.Y, z.W, z.H)
	return err
}
