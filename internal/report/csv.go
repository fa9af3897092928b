package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vbonduro/movequote/internal/domain"
)

var csvHeader = []string{
	"Client Name",
	"Number of Movers",
	"Labor Hours Low",
	"Labor Hours High",
	"Number of Vehicles",
	"Mileage (miles)",
	"Packing Service",
	"Materials Cost",
	"Total Low",
	"Total High",
	"Rooms",
}

// WriteCSV writes one header row and one data row. All room detail is packed
// into the last column: items are separated by "; " and rooms by " | ".
// Those separators are replaced inside room and item names.
func WriteCSV(w io.Writer, s Snapshot) error {
	inv := s.Inventory
	row := []string{
		inv.ClientName,
		formatNumber(inv.Movers),
		formatNumber(inv.HoursLow),
		formatNumber(inv.HoursHigh),
		formatNumber(inv.Vehicles),
		formatNumber(inv.Mileage),
		strconv.FormatBool(inv.PackingRequested),
		formatNumber(inv.ExtraMaterialsCost),
		s.Estimate.Estimate.Low.StringFixed(2),
		s.Estimate.Estimate.High.StringFixed(2),
		RoomsField(inv.Rooms),
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// RoomsField serializes every room into the single free-text CSV column.
func RoomsField(rooms []domain.Room) string {
	parts := make([]string, len(rooms))
	for i := range rooms {
		parts[i] = roomSummary(&rooms[i])
	}
	return strings.Join(parts, " | ")
}

var separatorReplacer = strings.NewReplacer(";", ",", "|", "/")

func roomSummary(r *domain.Room) string {
	m := r.Materials()
	return fmt.Sprintf("%s (%sx%s): Furniture - %s; Packing - %s; Materials - Boxes: %s, Bubble: %sft, Paper Pads: %s, Dish Packs: %s",
		separatorReplacer.Replace(r.Name), formatNumber(r.Width), formatNumber(r.Length),
		summaryItems(r.FurnitureItems), summaryItems(r.PackingItems),
		formatNumber(m.Boxes), formatNumber(m.BubbleWrapFeet),
		formatNumber(m.PaperPadBoxes), formatNumber(m.DishPacks))
}

func summaryItems(items []domain.Item) string {
	safe := make([]domain.Item, len(items))
	for i, it := range items {
		it.ID = separatorReplacer.Replace(it.ID)
		it.Name = separatorReplacer.Replace(it.Name)
		safe[i] = it
	}
	return formatItems(safe)
}
