package materials

import (
	"strings"

	"github.com/vbonduro/movequote/internal/vision"
)

// Furniture is the canonical name and nominal size (feet) for a detected piece.
type Furniture struct {
	Name   string
	Width  float64
	Length float64
	Height float64
}

var furnitureSizes = map[string]Furniture{
	"bed":          {Width: 6, Length: 7, Height: 2},
	"chair":        {Width: 3, Length: 3, Height: 3},
	"couch":        {Width: 7, Length: 3, Height: 3},
	"dining table": {Width: 6, Length: 4, Height: 3},
	"potted plant": {Width: 2, Length: 2, Height: 3},
	"tv":           {Width: 4, Length: 2, Height: 3},
}

var fallbackFurniture = Furniture{Name: "Detected Dresser", Width: 3.5, Length: 1.5, Height: 3}

// IdentifyFurniture returns the first detection, in list order, that belongs
// to a known furniture class. Without a match it falls back to a dresser.
func IdentifyFurniture(detections []vision.Detection) Furniture {
	for _, d := range detections {
		class := normaliseClass(d.Class)
		f, ok := furnitureSizes[class]
		if !ok {
			continue
		}
		f.Name = "Detected " + strings.ToUpper(class[:1]) + class[1:]
		return f
	}
	return fallbackFurniture
}
