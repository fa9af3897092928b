package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaterialQuantities holds the four packing-supply counts tracked per room.
type MaterialQuantities struct {
	Boxes          float64 `json:"boxes"`
	BubbleWrapFeet float64 `json:"bubbleWrapFeet"`
	PaperPadBoxes  float64 `json:"paperPadBoxes"`
	DishPacks      float64 `json:"dishPacks"`
}

// Add returns the field-wise sum of q and o.
func (q MaterialQuantities) Add(o MaterialQuantities) MaterialQuantities {
	return MaterialQuantities{
		Boxes:          q.Boxes + o.Boxes,
		BubbleWrapFeet: q.BubbleWrapFeet + o.BubbleWrapFeet,
		PaperPadBoxes:  q.PaperPadBoxes + o.PaperPadBoxes,
		DishPacks:      q.DishPacks + o.DishPacks,
	}
}

func (q MaterialQuantities) IsZero() bool {
	return q == MaterialQuantities{}
}

type PhotoRef struct {
	ID         string `json:"id"`
	StorageKey string `json:"storageKey"`
	MimeType   string `json:"mimeType"`
}

type Item struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Width         float64   `json:"width"`
	Length        float64   `json:"length"`
	Height        float64   `json:"height"`
	IsPackingItem bool      `json:"isPackingItem"`
	Photo         *PhotoRef `json:"photo,omitempty"`
	// Detected marks candidate packing items authored by the detection
	// coordinator. They are cleared and rebuilt on re-aggregation.
	Detected bool `json:"detected"`
}

type Room struct {
	ID              int64              `json:"id"`
	Name            string             `json:"name"`
	Width           float64            `json:"width"`
	Length          float64            `json:"length"`
	FurnitureItems  []Item             `json:"furnitureItems"`
	PackingItems    []Item             `json:"packingItems"`
	Photos          []PhotoRef         `json:"photos"`
	Estimated       MaterialQuantities `json:"estimated"`
	Override        MaterialQuantities `json:"override"`
	DetectionNotice string             `json:"detectionNotice,omitempty"`
}

// Materials is the effective quantity used for pricing and reporting.
func (r *Room) Materials() MaterialQuantities {
	return r.Estimated.Add(r.Override)
}

// Clone returns a deep copy of r.
func (r *Room) Clone() Room {
	c := *r
	c.FurnitureItems = cloneItems(r.FurnitureItems)
	c.PackingItems = cloneItems(r.PackingItems)
	c.Photos = append([]PhotoRef(nil), r.Photos...)
	return c
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it
		if it.Photo != nil {
			p := *it.Photo
			out[i].Photo = &p
		}
	}
	return out
}

// JobDetails are the job-level inputs of a quote.
type JobDetails struct {
	ClientName         string  `json:"clientName"`
	Movers             float64 `json:"movers"`
	HoursLow           float64 `json:"hoursLow"`
	HoursHigh          float64 `json:"hoursHigh"`
	Vehicles           float64 `json:"vehicles"`
	Mileage            float64 `json:"mileage"`
	PackingRequested   bool    `json:"packingRequested"`
	ExtraMaterialsCost float64 `json:"extraMaterialsCost"`
}

// DefaultJobDetails mirrors a fresh assessment form.
func DefaultJobDetails() JobDetails {
	return JobDetails{
		Movers:    2,
		HoursLow:  4,
		HoursHigh: 5,
		Vehicles:  1,
		Mileage:   10,
	}
}

type Inventory struct {
	JobDetails
	Rooms []Room `json:"rooms"`
}

// TotalItems counts furniture and packing items across all rooms.
func (inv *Inventory) TotalItems() int {
	n := 0
	for i := range inv.Rooms {
		n += len(inv.Rooms[i].FurnitureItems) + len(inv.Rooms[i].PackingItems)
	}
	return n
}

type EstimateResult struct {
	Low  decimal.Decimal `json:"low"`
	High decimal.Decimal `json:"high"`
}

func (e EstimateResult) String() string {
	return fmt.Sprintf("$%s - $%s", e.Low.StringFixed(2), e.High.StringFixed(2))
}

// SavedQuote is a persisted report snapshot. Snapshot holds the JSON-encoded
// report and is omitted from listings.
type SavedQuote struct {
	ID         int64           `json:"id"`
	ClientName string          `json:"clientName"`
	TotalLow   string          `json:"totalLow"`
	TotalHigh  string          `json:"totalHigh"`
	Snapshot   json.RawMessage `json:"snapshot,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}
