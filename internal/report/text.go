package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/vbonduro/movequote/internal/domain"
)

// WriteText renders the customer-facing quote as plain text.
func WriteText(w io.Writer, s Snapshot) error {
	inv := s.Inventory
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Quote for %s\n", inv.ClientName)
	fmt.Fprintf(bw, "Total Estimate: %s\n", s.Estimate.Estimate)
	fmt.Fprintf(bw, "Number of Movers: %s\n", formatNumber(inv.Movers))
	fmt.Fprintf(bw, "Labor Hours (Low/High): %s/%s\n", formatNumber(inv.HoursLow), formatNumber(inv.HoursHigh))
	fmt.Fprintf(bw, "Number of Vehicles: %s\n", formatNumber(inv.Vehicles))
	fmt.Fprintf(bw, "Mileage (miles): %s\n", formatNumber(inv.Mileage))
	fmt.Fprintf(bw, "Packing Service: %s\n", yesNo(inv.PackingRequested))
	fmt.Fprintf(bw, "Additional Materials Cost: $%s\n", formatNumber(inv.ExtraMaterialsCost))
	fmt.Fprintln(bw, "Rooms:")

	for i := range inv.Rooms {
		writeRoom(bw, &inv.Rooms[i])
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write quote: %w", err)
	}
	return nil
}

func writeRoom(w io.Writer, r *domain.Room) {
	fmt.Fprintf(w, "%s (%sx%s ft):\n", r.Name, formatNumber(r.Width), formatNumber(r.Length))
	fmt.Fprintln(w, "  Furniture Items:")
	for _, it := range r.FurnitureItems {
		fmt.Fprintf(w, "    - %s\n", formatItem(it))
	}
	fmt.Fprintln(w, "  Packing Items:")
	for _, it := range r.PackingItems {
		fmt.Fprintf(w, "    - %s\n", formatItem(it))
	}
	m := r.Materials()
	fmt.Fprintf(w, "  Estimated Materials (Auto + Override): %s boxes, %s ft bubble wrap, %s paper pad boxes, %s dish packs\n",
		formatNumber(m.Boxes), formatNumber(m.BubbleWrapFeet), formatNumber(m.PaperPadBoxes), formatNumber(m.DishPacks))
	if r.DetectionNotice != "" {
		fmt.Fprintf(w, "  Note: %s\n", r.DetectionNotice)
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
