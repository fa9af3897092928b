package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/movequote/internal/domain"
)

type staticSource struct {
	inv domain.Inventory
}

func (s staticSource) Snapshot() domain.Inventory {
	out := s.inv
	out.Rooms = make([]domain.Room, len(s.inv.Rooms))
	for i := range s.inv.Rooms {
		out.Rooms[i] = s.inv.Rooms[i].Clone()
	}
	return out
}

func sampleRates() domain.RateSchedule {
	return domain.RateSchedule{
		domain.RateMoverHourly:           75,
		domain.RateVehicleFlat:           50,
		domain.RateMileage:               1,
		domain.RatePackingFee:            200,
		domain.RateBoxCost:               4,
		domain.RateBubbleWrapCostPerFoot: 0.4,
		domain.RatePaperPadCostPerBox:    23.75,
		domain.RateDishPackCost:          4.3,
	}
}

func sampleInventory() domain.Inventory {
	details := domain.DefaultJobDetails()
	details.ClientName = "Jane Doe"
	return domain.Inventory{
		JobDetails: details,
		Rooms: []domain.Room{{
			ID:     1,
			Name:   "Kitchen",
			Width:  12,
			Length: 10,
			FurnitureItems: []domain.Item{
				{ID: "Item-1", Name: "Table", Width: 6, Length: 4},
			},
			PackingItems: []domain.Item{
				{ID: "Item-2", Name: "Detected Dishes (10)", IsPackingItem: true, Detected: true},
			},
			Estimated: domain.MaterialQuantities{Boxes: 1, BubbleWrapFeet: 20, PaperPadBoxes: 2, DishPacks: 1},
			Override:  domain.MaterialQuantities{Boxes: 2},
		}},
	}
}

func TestBuildPricesSnapshot(t *testing.T) {
	snap := Build(staticSource{inv: sampleInventory()}, sampleRates())

	assert.Equal(t, "731.80", snap.Estimate.Estimate.Low.StringFixed(2))
	assert.Equal(t, "893.80", snap.Estimate.Estimate.High.StringFixed(2))
	assert.Equal(t, "Jane Doe", snap.Inventory.ClientName)
	assert.False(t, snap.GeneratedAt.IsZero())
}

func TestWriteCSV(t *testing.T) {
	snap := Build(staticSource{inv: sampleInventory()}, sampleRates())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, snap))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{
		"Jane Doe", "2", "4", "5", "1", "10", "false", "0", "731.80", "893.80",
		"Kitchen (12x10): Furniture - Item-1: Table (6x4xN/A); " +
			"Packing - Item-2: Detected Dishes (10) (N/AxN/AxN/A); " +
			"Materials - Boxes: 3, Bubble: 20ft, Paper Pads: 2, Dish Packs: 1",
	}, records[1])
}

func TestRoomsFieldJoinsRooms(t *testing.T) {
	rooms := []domain.Room{{Name: "A", Width: 1, Length: 2}, {Name: "B", Width: 3.5, Length: 4}}

	got := RoomsField(rooms)

	parts := strings.Split(got, " | ")
	require.Len(t, parts, 2)
	assert.True(t, strings.HasPrefix(parts[1], "B (3.5x4): Furniture - ; Packing - ;"))
}

func TestBuildReportsDetailsAsEntered(t *testing.T) {
	inv := sampleInventory()
	inv.HoursLow = 6
	inv.HoursHigh = 4

	snap := Build(staticSource{inv: inv}, sampleRates())

	assert.Equal(t, 4.0, snap.Inventory.HoursHigh)
	assert.True(t, snap.Estimate.Estimate.Low.Equal(snap.Estimate.Estimate.High))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, snap))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "6", records[1][2])
	assert.Equal(t, "4", records[1][3])
}

func TestRoomsFieldReplacesSeparatorsInNames(t *testing.T) {
	rooms := []domain.Room{
		{Name: "Den | Office", Width: 1, Length: 1, FurnitureItems: []domain.Item{{ID: "Item-1", Name: "Desk; oak"}}},
		{Name: "Hall", Width: 1, Length: 1, PackingItems: []domain.Item{{ID: "Item-2", Name: "Books|Games"}}},
	}

	got := RoomsField(rooms)

	parts := strings.Split(got, " | ")
	require.Len(t, parts, 2)
	assert.True(t, strings.HasPrefix(parts[0], "Den / Office (1x1): Furniture - Item-1: Desk, oak (N/AxN/AxN/A); Packing - ;"), parts[0])
	assert.True(t, strings.HasPrefix(parts[1], "Hall (1x1): Furniture - ; Packing - Item-2: Books/Games (N/AxN/AxN/A);"), parts[1])
}

func TestWriteText(t *testing.T) {
	snap := Build(staticSource{inv: sampleInventory()}, sampleRates())

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, snap))
	out := buf.String()

	assert.Contains(t, out, "Quote for Jane Doe\n")
	assert.Contains(t, out, "Total Estimate: $731.80 - $893.80\n")
	assert.Contains(t, out, "Labor Hours (Low/High): 4/5\n")
	assert.Contains(t, out, "Packing Service: No\n")
	assert.Contains(t, out, "Kitchen (12x10 ft):\n")
	assert.Contains(t, out, "    - Item-1: Table (6x4xN/A)\n")
	assert.Contains(t, out, "Estimated Materials (Auto + Override): 3 boxes, 20 ft bubble wrap, 2 paper pad boxes, 1 dish packs\n")
}

func TestBuildDoesNotShareState(t *testing.T) {
	inv := sampleInventory()
	src := staticSource{inv: inv}

	snap := Build(src, sampleRates())
	snap.Inventory.Rooms[0].Name = "changed"

	assert.Equal(t, "Kitchen", inv.Rooms[0].Name)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Jane_Doe_assessment.csv", Filename("Jane Doe", "assessment.csv"))
	assert.Equal(t, "quote_quote.txt", Filename("  ", "quote.txt"))
	assert.Equal(t, "Smith_Sons_quote.txt", Filename("Smith & Sons/", "quote.txt"))
}
