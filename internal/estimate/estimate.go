// Package estimate computes the low/high price range of a moving job.
package estimate

import (
	"github.com/shopspring/decimal"

	"github.com/vbonduro/movequote/internal/domain"
)

// vehicleHighFactor scales the vehicle cost for the high end of the range.
var vehicleHighFactor = decimal.RequireFromString("1.2")

// Breakdown contains the line items of the calculation before rounding.
type Breakdown struct {
	TotalItems   int             `json:"totalItems"`
	LaborLow     decimal.Decimal `json:"laborLow"`
	LaborHigh    decimal.Decimal `json:"laborHigh"`
	VehicleLow   decimal.Decimal `json:"vehicleLow"`
	VehicleHigh  decimal.Decimal `json:"vehicleHigh"`
	Packing      decimal.Decimal `json:"packing"`
	ItemHandling decimal.Decimal `json:"itemHandling"`
	Materials    decimal.Decimal `json:"materials"`
}

// Result groups the breakdown with the rounded estimate.
type Result struct {
	Breakdown Breakdown             `json:"breakdown"`
	Estimate  domain.EstimateResult `json:"estimate"`
}

// Calculate prices inv against rates. It never fails: inv is normalized
// first and missing rates read as zero.
func Calculate(inv domain.Inventory, rates domain.RateSchedule) Result {
	inv = Normalize(inv)
	rate := func(name string) decimal.Decimal { return dec(rates.Get(name)) }

	materials := rate(domain.RateMaterialsCost).Add(dec(inv.ExtraMaterialsCost))
	for i := range inv.Rooms {
		q := inv.Rooms[i].Materials()
		materials = materials.
			Add(dec(q.Boxes).Mul(rate(domain.RateBoxCost))).
			Add(dec(q.BubbleWrapFeet).Mul(rate(domain.RateBubbleWrapCostPerFoot))).
			Add(dec(q.PaperPadBoxes).Mul(rate(domain.RatePaperPadCostPerBox))).
			Add(dec(q.DishPacks).Mul(rate(domain.RateDishPackCost)))
	}

	moverHour := dec(inv.Movers).Mul(rate(domain.RateMoverHourly))
	laborLow := moverHour.Mul(dec(inv.HoursLow))
	laborHigh := moverHour.Mul(dec(inv.HoursHigh))

	vehicleLow := dec(inv.Vehicles).Mul(rate(domain.RateVehicleFlat)).
		Add(dec(inv.Mileage).Mul(rate(domain.RateMileage)))
	vehicleHigh := vehicleLow.Mul(vehicleHighFactor)

	packing := decimal.Zero
	if inv.PackingRequested {
		packing = rate(domain.RatePackingFee)
	}

	totalItems := inv.TotalItems()
	itemCost := decimal.NewFromInt(int64(totalItems)).Mul(rate(domain.RateItemHandling))

	fixed := packing.Add(itemCost).Add(materials)
	low := laborLow.Add(vehicleLow).Add(fixed)
	high := laborHigh.Add(vehicleHigh).Add(fixed)

	return Result{
		Breakdown: Breakdown{
			TotalItems:   totalItems,
			LaborLow:     laborLow,
			LaborHigh:    laborHigh,
			VehicleLow:   vehicleLow,
			VehicleHigh:  vehicleHigh,
			Packing:      packing,
			ItemHandling: itemCost,
			Materials:    materials,
		},
		Estimate: domain.EstimateResult{
			Low:  roundCents(low),
			High: roundCents(high),
		},
	}
}

// roundCents rounds half up. Inputs are never negative after normalization,
// so Round (half away from zero) is equivalent.
func roundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
