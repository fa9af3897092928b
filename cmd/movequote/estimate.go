package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vbonduro/movequote/internal/domain"
	"github.com/vbonduro/movequote/internal/report"
)

// fileSource serves a fixed inventory read from disk.
type fileSource domain.Inventory

func (f fileSource) Snapshot() domain.Inventory {
	return domain.Inventory(f)
}

func newEstimateCmd() *cobra.Command {
	var (
		inputPath string
		ratesPath string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Price an inventory file without starting the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := readInventory(inputPath)
			if err != nil {
				return err
			}
			schedule, err := defaultRates(ratesPath)
			if err != nil {
				return err
			}
			snap := report.Build(fileSource(inv), schedule)

			out := cmd.OutOrStdout()
			switch format {
			case "csv":
				return report.WriteCSV(out, snap)
			case "text":
				return report.WriteText(out, snap)
			case "summary":
				return writeSummary(out, snap)
			default:
				return fmt.Errorf("unknown format %q (want summary, csv or text)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "inventory JSON file")
	cmd.Flags().StringVar(&ratesPath, "rates", "", "TOML file of rate overrides")
	cmd.Flags().StringVar(&format, "format", "summary", "output format: summary, csv or text")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func readInventory(path string) (domain.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Inventory{}, fmt.Errorf("failed to read inventory %s: %w", path, err)
	}
	var in domain.InventoryInput
	if err := json.Unmarshal(data, &in); err != nil {
		return domain.Inventory{}, fmt.Errorf("failed to parse inventory %s: %w", path, err)
	}
	return in.Inventory(), nil
}

func writeSummary(w io.Writer, snap report.Snapshot) error {
	b := snap.Estimate.Breakdown
	client := snap.Inventory.ClientName
	if client == "" {
		client = "(no client name)"
	}

	lines := []string{
		color.New(color.Bold).Sprint(client),
		fmt.Sprintf("  rooms: %d  items: %d", len(snap.Inventory.Rooms), b.TotalItems),
		fmt.Sprintf("  labor:     %s - %s", b.LaborLow.StringFixed(2), b.LaborHigh.StringFixed(2)),
		fmt.Sprintf("  vehicles:  %s - %s", b.VehicleLow.StringFixed(2), b.VehicleHigh.StringFixed(2)),
		fmt.Sprintf("  packing:   %s", b.Packing.StringFixed(2)),
		fmt.Sprintf("  handling:  %s", b.ItemHandling.StringFixed(2)),
		fmt.Sprintf("  materials: %s", b.Materials.StringFixed(2)),
		color.GreenString("Estimate: %s", snap.Estimate.Estimate.String()),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
