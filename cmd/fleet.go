package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/rental-broker/internal/domain/rental"
	"github.com/example/rental-broker/internal/infrastructure/config"
	"github.com/example/rental-broker/internal/infrastructure/fleetfile"
)

func newFleetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleet",
		Short: "Inspect and import provider fleets",
	}
	cmd.AddCommand(newFleetCheckCmd())
	cmd.AddCommand(newFleetImportCmd())
	cmd.AddCommand(newFleetListCmd())
	return cmd
}

func newFleetCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <fleet.csv|fleet.yaml>",
		Short: "Parse a fleet file or manifest and print what it describes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			out := cmd.OutOrStdout()
			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml":
				m, err := fleetfile.LoadManifest(path)
				if err != nil {
					return err
				}
				return printManifest(out, m)
			default:
				entries, err := fleetfile.Load(path)
				if err != nil {
					return err
				}
				return printFleet(out, entries)
			}
		},
	}
}

func newFleetImportCmd() *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "import <fleet.csv>",
		Short: "Store a fleet file in Postgres under a provider name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				return fmt.Errorf("--provider is required")
			}
			entries, err := fleetfile.Load(args[0])
			if err != nil {
				return err
			}
			cfg, err := config.FromEnv(configFile)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			repo, closeDB, err := openFleetRepo(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()
			if err := repo.ReplaceFleet(ctx, provider, entries); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d car types for %s\n", len(entries), provider)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "provider name")
	return cmd
}

func newFleetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [provider]",
		Short: "List providers stored in Postgres, or the fleet of one provider",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv(configFile)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			repo, closeDB, err := openFleetRepo(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			if len(args) == 1 {
				entries, err := repo.LoadFleet(ctx, args[0])
				if err != nil {
					return err
				}
				return printFleet(cmd.OutOrStdout(), entries)
			}
			names, err := repo.Providers(ctx)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func printFleet(w io.Writer, entries []rental.FleetEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tSEATS\tTRUNK\tPRICE/DAY\tSMOKING\tCOUNT")
	cars := 0
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.2f\t%t\t%d\n",
			e.Type.Name, e.Type.Seats, e.Type.TrunkSpace, e.Type.PricePerDay, e.Type.SmokingAllowed, e.Count)
		cars += e.Count
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d car types, %d cars\n", len(entries), cars)
	return err
}

func printManifest(w io.Writer, m fleetfile.Manifest) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tSOURCE\tLOCATION")
	for _, p := range m.Providers {
		loc := p.Fleet
		switch p.Source() {
		case fleetfile.SourceRemote:
			loc = p.URL
		case fleetfile.SourceInline:
			loc = fmt.Sprintf("%d car types", len(p.Cars))
		case fleetfile.SourcePostgres:
			loc = "fleet_car_types"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Source(), loc)
	}
	return tw.Flush()
}
