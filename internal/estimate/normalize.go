package estimate

import "github.com/vbonduro/movequote/internal/domain"

// Normalize returns a copy of inv with every numeric field defaulted:
// negative, NaN and infinite values become 0, and HoursHigh is raised to
// HoursLow so the high estimate can never undercut the low one.
func Normalize(inv domain.Inventory) domain.Inventory {
	out := inv
	out.Movers = domain.NonNegative(inv.Movers)
	out.HoursLow = domain.NonNegative(inv.HoursLow)
	out.HoursHigh = domain.NonNegative(inv.HoursHigh)
	if out.HoursHigh < out.HoursLow {
		out.HoursHigh = out.HoursLow
	}
	out.Vehicles = domain.NonNegative(inv.Vehicles)
	out.Mileage = domain.NonNegative(inv.Mileage)
	out.ExtraMaterialsCost = domain.NonNegative(inv.ExtraMaterialsCost)

	out.Rooms = make([]domain.Room, len(inv.Rooms))
	for i := range inv.Rooms {
		r := inv.Rooms[i]
		r.Estimated = normalizeQuantities(r.Estimated)
		r.Override = normalizeQuantities(r.Override)
		out.Rooms[i] = r
	}
	return out
}

func normalizeQuantities(q domain.MaterialQuantities) domain.MaterialQuantities {
	return domain.MaterialQuantities{
		Boxes:          domain.NonNegative(q.Boxes),
		BubbleWrapFeet: domain.NonNegative(q.BubbleWrapFeet),
		PaperPadBoxes:  domain.NonNegative(q.PaperPadBoxes),
		DishPacks:      domain.NonNegative(q.DishPacks),
	}
}
