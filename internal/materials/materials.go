// Package materials converts object detections into packing-material
// quantities and candidate inventory entries. Everything here is pure.
package materials

import (
	"fmt"
	"strings"

	"github.com/vbonduro/movequote/internal/domain"
	"github.com/vbonduro/movequote/internal/vision"
)

const (
	dishesPerPack      = 20
	dishesPerBox       = 20
	booksPerBox        = 30
	paperPadsPerDish   = 4
	paperPadsPerBox    = 25
	bubbleFeetPerDish  = 2
	candidateDishesFmt = "Detected Dishes (%d)"
	candidateBooksFmt  = "Detected Books (%d)"
)

var dishClasses = map[string]bool{
	"cup":        true,
	"bowl":       true,
	"bottle":     true,
	"wine glass": true,
	"fork":       true,
	"knife":      true,
	"spoon":      true,
}

const bookClass = "book"

// Counts is the material-relevant tally of a detection list.
type Counts struct {
	Dishes int
	Books  int
}

// Result is everything derived from one photo's detections.
type Result struct {
	Counts     Counts
	Quantities domain.MaterialQuantities
	Candidates []domain.Item
}

// Estimate tallies detections and derives quantities and candidate items.
// Candidate items carry no ID; the inventory assigns one when they are added.
func Estimate(detections []vision.Detection) Result {
	c := Count(detections)
	return Result{
		Counts:     c,
		Quantities: Quantities(c),
		Candidates: Candidates(c),
	}
}

// Count partitions detections into dishware and books. Each detection counts
// once; duplicate hits on the same object are not merged.
func Count(detections []vision.Detection) Counts {
	var c Counts
	for _, d := range detections {
		class := normaliseClass(d.Class)
		switch {
		case dishClasses[class]:
			c.Dishes++
		case class == bookClass:
			c.Books++
		}
	}
	return c
}

func Quantities(c Counts) domain.MaterialQuantities {
	return domain.MaterialQuantities{
		Boxes:          float64(ceilDiv(c.Dishes, dishesPerBox) + ceilDiv(c.Books, booksPerBox)),
		BubbleWrapFeet: float64(c.Dishes * bubbleFeetPerDish),
		PaperPadBoxes:  float64(ceilDiv(c.Dishes*paperPadsPerDish, paperPadsPerBox)),
		DishPacks:      float64(ceilDiv(c.Dishes, dishesPerPack)),
	}
}

func Candidates(c Counts) []domain.Item {
	var items []domain.Item
	if c.Dishes > 0 {
		items = append(items, domain.Item{
			Name:          fmt.Sprintf(candidateDishesFmt, c.Dishes),
			IsPackingItem: true,
			Detected:      true,
		})
	}
	if c.Books > 0 {
		items = append(items, domain.Item{
			Name:          fmt.Sprintf(candidateBooksFmt, c.Books),
			IsPackingItem: true,
			Detected:      true,
		})
	}
	return items
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

func normaliseClass(class string) string {
	return strings.ToLower(strings.TrimSpace(class))
}
