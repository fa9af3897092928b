package domain

import "math"

// Rate names understood by the estimate engine.
const (
	RateMoverHourly           = "moverHourly"
	RateVehicleFlat           = "vehicleFlat"
	RateMileage               = "mileageRate"
	RatePackingFee            = "packingFee"
	RateItemHandling          = "itemHandling"
	RateMaterialsCost         = "materialsCost"
	RateBubbleWrapCostPerFoot = "bubbleWrapCostPerFoot"
	RateBoxCost               = "boxCost"
	RatePaperPadCostPerBox    = "paperPadCostPerBox"
	RateDishPackCost          = "dishPackCost"
)

// RateNames lists every known rate in display order.
var RateNames = []string{
	RateMoverHourly,
	RateVehicleFlat,
	RateMileage,
	RatePackingFee,
	RateItemHandling,
	RateMaterialsCost,
	RateBubbleWrapCostPerFoot,
	RateBoxCost,
	RatePaperPadCostPerBox,
	RateDishPackCost,
}

// RateSchedule maps rate names to values. A nil schedule is valid.
type RateSchedule map[string]float64

// Get returns the named rate, or 0 when it is absent, negative or not finite.
func (r RateSchedule) Get(name string) float64 {
	return NonNegative(r[name])
}

// Merge returns a copy of r with the entries of o layered on top.
func (r RateSchedule) Merge(o RateSchedule) RateSchedule {
	out := make(RateSchedule, len(r)+len(o))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

// IsKnownRate reports whether name is one of RateNames.
func IsKnownRate(name string) bool {
	for _, n := range RateNames {
		if n == name {
			return true
		}
	}
	return false
}

// NonNegative maps negative, NaN and infinite values to 0.
func NonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
