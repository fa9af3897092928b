// Package report projects the inventory and its estimate into the read-only
// snapshot consumed by document generators, and renders CSV and plain-text
// quotes from it.
package report

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vbonduro/movequote/internal/domain"
	"github.com/vbonduro/movequote/internal/estimate"
)

// Source produces deep copies of the current inventory.
type Source interface {
	Snapshot() domain.Inventory
}

// Snapshot is an immutable view of a job and its price at one instant.
type Snapshot struct {
	Inventory   domain.Inventory `json:"inventory"`
	Estimate    estimate.Result  `json:"estimate"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// Build takes a fresh snapshot of src and prices it. The estimate is never
// cached, so it always reflects the inventory it is paired with. The
// inventory is kept as entered; only the pricing sees normalized values.
func Build(src Source, rates domain.RateSchedule) Snapshot {
	inv := src.Snapshot()
	return Snapshot{
		Inventory:   inv,
		Estimate:    estimate.Calculate(inv, rates),
		GeneratedAt: time.Now().UTC(),
	}
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename derives a download name such as "Jane_Doe_assessment.csv".
func Filename(clientName, suffix string) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(strings.TrimSpace(clientName), "_"), "_")
	if base == "" {
		base = "quote"
	}
	return base + "_" + suffix
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatDimension renders an unset (zero) dimension as N/A.
func formatDimension(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return formatNumber(v)
}

func formatItem(it domain.Item) string {
	return it.ID + ": " + it.Name + " (" +
		formatDimension(it.Width) + "x" +
		formatDimension(it.Length) + "x" +
		formatDimension(it.Height) + ")"
}

func formatItems(items []domain.Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = formatItem(it)
	}
	return strings.Join(parts, "; ")
}
