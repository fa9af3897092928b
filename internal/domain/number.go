package domain

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
)

// Number is a float that decodes leniently from JSON: numbers and numeric
// strings are accepted, anything else (empty, null, "abc") decodes to 0.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			raw = ""
		}
	}
	v, ok := LookupNumber(raw)
	if !ok && strings.TrimSpace(raw) != "" && raw != "null" {
		slog.Warn("non-numeric value read as zero", "value", raw)
	}
	*n = Number(v)
	return nil
}

func (n Number) Float() float64 {
	return NonNegative(float64(n))
}

// ParseNumber parses s as a float, returning 0 for malformed input.
func ParseNumber(s string) float64 {
	v, _ := LookupNumber(s)
	return v
}

// LookupNumber parses s as a float and reports whether it was well formed.
func LookupNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// JobInput is the lenient wire form of JobDetails.
type JobInput struct {
	ClientName         string `json:"clientName"`
	Movers             Number `json:"movers"`
	HoursLow           Number `json:"hoursLow"`
	HoursHigh          Number `json:"hoursHigh"`
	Vehicles           Number `json:"vehicles"`
	Mileage            Number `json:"mileage"`
	PackingRequested   bool   `json:"packingRequested"`
	ExtraMaterialsCost Number `json:"extraMaterialsCost"`
}

func (in JobInput) Details() JobDetails {
	return JobDetails{
		ClientName:         strings.TrimSpace(in.ClientName),
		Movers:             in.Movers.Float(),
		HoursLow:           in.HoursLow.Float(),
		HoursHigh:          in.HoursHigh.Float(),
		Vehicles:           in.Vehicles.Float(),
		Mileage:            in.Mileage.Float(),
		PackingRequested:   in.PackingRequested,
		ExtraMaterialsCost: in.ExtraMaterialsCost.Float(),
	}
}

// QuantitiesInput is the lenient wire form of MaterialQuantities.
type QuantitiesInput struct {
	Boxes          Number `json:"boxes"`
	BubbleWrapFeet Number `json:"bubbleWrapFeet"`
	PaperPadBoxes  Number `json:"paperPadBoxes"`
	DishPacks      Number `json:"dishPacks"`
}

func (in QuantitiesInput) Quantities() MaterialQuantities {
	return MaterialQuantities{
		Boxes:          in.Boxes.Float(),
		BubbleWrapFeet: in.BubbleWrapFeet.Float(),
		PaperPadBoxes:  in.PaperPadBoxes.Float(),
		DishPacks:      in.DishPacks.Float(),
	}
}

// ItemInput is the lenient wire form of Item.
type ItemInput struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Width         Number    `json:"width"`
	Length        Number    `json:"length"`
	Height        Number    `json:"height"`
	IsPackingItem bool      `json:"isPackingItem"`
	Photo         *PhotoRef `json:"photo,omitempty"`
	Detected      bool      `json:"detected"`
}

func (in ItemInput) Item() Item {
	return Item{
		ID:            in.ID,
		Name:          in.Name,
		Width:         in.Width.Float(),
		Length:        in.Length.Float(),
		Height:        in.Height.Float(),
		IsPackingItem: in.IsPackingItem,
		Photo:         in.Photo,
		Detected:      in.Detected,
	}
}

// RoomInput is the lenient wire form of Room.
type RoomInput struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Width           Number          `json:"width"`
	Length          Number          `json:"length"`
	FurnitureItems  []ItemInput     `json:"furnitureItems"`
	PackingItems    []ItemInput     `json:"packingItems"`
	Photos          []PhotoRef      `json:"photos"`
	Estimated       QuantitiesInput `json:"estimated"`
	Override        QuantitiesInput `json:"override"`
	DetectionNotice string          `json:"detectionNotice,omitempty"`
}

func (in RoomInput) Room() Room {
	return Room{
		ID:              in.ID,
		Name:            in.Name,
		Width:           in.Width.Float(),
		Length:          in.Length.Float(),
		FurnitureItems:  items(in.FurnitureItems),
		PackingItems:    items(in.PackingItems),
		Photos:          in.Photos,
		Estimated:       in.Estimated.Quantities(),
		Override:        in.Override.Quantities(),
		DetectionNotice: in.DetectionNotice,
	}
}

func items(in []ItemInput) []Item {
	if in == nil {
		return nil
	}
	out := make([]Item, len(in))
	for i, it := range in {
		out[i] = it.Item()
	}
	return out
}

// RateInput is a lenient set of rate edits keyed by rate name.
type RateInput map[string]Number

func (in RateInput) Schedule() RateSchedule {
	out := make(RateSchedule, len(in))
	for name, v := range in {
		out[name] = v.Float()
	}
	return out
}

// InventoryInput is a whole job as read from a file, decoded leniently.
type InventoryInput struct {
	JobInput
	Rooms []RoomInput `json:"rooms"`
}

func (in InventoryInput) Inventory() Inventory {
	var rooms []Room
	for _, r := range in.Rooms {
		rooms = append(rooms, r.Room())
	}
	return Inventory{JobDetails: in.Details(), Rooms: rooms}
}
