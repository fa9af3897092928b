package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/movequote/internal/db"
	"github.com/vbonduro/movequote/internal/detection"
	"github.com/vbonduro/movequote/internal/domain"
	"github.com/vbonduro/movequote/internal/inventory"
	"github.com/vbonduro/movequote/internal/rates"
	"github.com/vbonduro/movequote/internal/report"
	"github.com/vbonduro/movequote/internal/store"
	"github.com/vbonduro/movequote/internal/vision"
)

// stubDetector answers with the detections registered for the image bytes.
type stubDetector struct {
	byContent map[string][]vision.Detection
	err       error
}

func (s *stubDetector) Detect(_ context.Context, r io.Reader, _ string) ([]vision.Detection, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return s.byContent[string(data)], nil
}

// stubPhotoStore is a minimal in-memory photostore.PhotoStore for tests.
type stubPhotoStore struct {
	mu      sync.Mutex
	saved   map[string][]byte
	n       int
	saveErr error
}

func newStubPhotoStore() *stubPhotoStore {
	return &stubPhotoStore{saved: make(map[string][]byte)}
}

func (s *stubPhotoStore) Save(_ context.Context, prefix, _ string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, _ := io.ReadAll(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	key := fmt.Sprintf("%s/photo%d.jpg", prefix, s.n)
	s.saved[key] = data
	return key, nil
}

func (s *stubPhotoStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.saved[key]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), "image/jpeg", nil
}

func (s *stubPhotoStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.saved, key)
	return nil
}

func (s *stubPhotoStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

type harness struct {
	svc    *QuoteService
	coord  *detection.Coordinator
	photos *stubPhotoStore
	det    *stubDetector
}

func newTestService(t *testing.T) *harness {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	det := &stubDetector{byContent: map[string][]vision.Detection{}}
	photos := newStubPhotoStore()
	inv := inventory.New(nil, domain.DefaultJobDetails())
	coord := detection.New(inv, det, photos, detection.Options{})
	t.Cleanup(coord.Close)

	svc := NewQuoteService(inv, coord, store.NewRateStore(d), store.NewQuoteStore(d), photos, rates.Defaults(), slog.Default())
	return &harness{svc: svc, coord: coord, photos: photos, det: det}
}

func cups(n int) []vision.Detection {
	out := make([]vision.Detection, n)
	for i := range out {
		out[i] = vision.Detection{Class: "cup", Score: 0.8}
	}
	return out
}

func TestQuoteServiceDefaultEstimate(t *testing.T) {
	h := newTestService(t)

	res, err := h.svc.Estimate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "660.00", res.Estimate.Low.StringFixed(2))
	assert.Equal(t, "822.00", res.Estimate.High.StringFixed(2))
}

func TestQuoteServiceRatesMergeOverrides(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()

	got, err := h.svc.UpdateRates(ctx, domain.RateSchedule{domain.RateMoverHourly: 100})
	require.NoError(t, err)
	assert.Equal(t, 100.0, got[domain.RateMoverHourly])
	assert.Equal(t, 50.0, got[domain.RateVehicleFlat])

	res, err := h.svc.Estimate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "860.00", res.Estimate.Low.StringFixed(2))

	got, err = h.svc.ResetRates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 75.0, got[domain.RateMoverHourly])
}

func TestQuoteServiceRejectsInvalidRates(t *testing.T) {
	h := newTestService(t)

	_, err := h.svc.UpdateRates(context.Background(), domain.RateSchedule{"tipJar": 5})
	assert.True(t, errors.Is(err, rates.ErrInvalidRate))

	_, err = h.svc.UpdateRates(context.Background(), domain.RateSchedule{domain.RateBoxCost: -2})
	assert.True(t, errors.Is(err, rates.ErrInvalidRate))
}

func TestQuoteServiceUploadAndRemovePhotos(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	h.det.byContent["first"] = cups(10)
	h.det.byContent["second"] = cups(30)

	room := h.svc.CreateRoom(ctx, "Kitchen", 12, 10)
	refs, err := h.svc.UploadRoomPhotos(ctx, room.ID, []Upload{
		{Data: []byte("first"), MimeType: "image/jpeg"},
		{Data: []byte("second"), MimeType: "image/jpeg"},
	})
	require.NoError(t, err)
	require.Len(t, refs, 2)
	h.coord.Wait()

	got, err := h.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.Estimated.DishPacks)
	require.Len(t, got.PackingItems, 1)
	assert.Equal(t, "Detected Dishes (10)", got.PackingItems[0].Name)

	require.NoError(t, h.svc.DeleteRoomPhoto(ctx, room.ID, refs[0].ID))
	h.coord.Wait()

	got, err = h.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Estimated.DishPacks)
	require.Len(t, got.PackingItems, 1)
	assert.Equal(t, "Detected Dishes (30)", got.PackingItems[0].Name)
	assert.Equal(t, 1, h.photos.count())
}

func TestQuoteServiceUploadToMissingRoom(t *testing.T) {
	h := newTestService(t)

	_, err := h.svc.UploadRoomPhotos(context.Background(), 99, []Upload{{Data: []byte("x")}})
	assert.True(t, errors.Is(err, inventory.ErrRoomNotFound))
	assert.Zero(t, h.photos.count())
}

func TestQuoteServiceUploadSaveError(t *testing.T) {
	h := newTestService(t)
	h.photos.saveErr = errors.New("disk full")
	room := h.svc.CreateRoom(context.Background(), "Den", 0, 0)

	_, err := h.svc.UploadRoomPhotos(context.Background(), room.ID, []Upload{{Data: []byte("x")}})
	assert.ErrorContains(t, err, "disk full")

	got, err := h.svc.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Photos)
}

func TestQuoteServiceGetPhoto(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	room := h.svc.CreateRoom(ctx, "Den", 0, 0)

	refs, err := h.svc.UploadRoomPhotos(ctx, room.ID, []Upload{{Data: []byte("pixels"), MimeType: "image/png"}})
	require.NoError(t, err)
	h.coord.Wait()

	rc, mimeType, err := h.svc.GetPhoto(ctx, room.ID, refs[0].ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
	assert.Equal(t, "image/png", mimeType)

	_, _, err = h.svc.GetPhoto(ctx, room.ID, "nope")
	assert.True(t, errors.Is(err, inventory.ErrPhotoNotFound))
}

func TestQuoteServiceItemPhotoReplacesPrevious(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	h.det.byContent["sofa"] = []vision.Detection{{Class: "couch"}}
	h.det.byContent["bed"] = []vision.Detection{{Class: "bed"}}

	room := h.svc.CreateRoom(ctx, "Bedroom", 0, 0)
	item, err := h.svc.CreateItem(ctx, room.ID, inventory.Furniture, domain.Item{Name: "Unknown"})
	require.NoError(t, err)

	_, err = h.svc.SetItemPhoto(ctx, room.ID, item.ID, Upload{Data: []byte("sofa")})
	require.NoError(t, err)
	h.coord.Wait()
	_, err = h.svc.SetItemPhoto(ctx, room.ID, item.ID, Upload{Data: []byte("bed")})
	require.NoError(t, err)
	h.coord.Wait()

	got, err := h.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "Detected Bed", got.FurnitureItems[0].Name)
	assert.Equal(t, 1, h.photos.count())

	require.NoError(t, h.svc.DeleteItemPhoto(ctx, room.ID, item.ID))
	assert.Zero(t, h.photos.count())
}

func TestQuoteServiceDeleteRoomReleasesPhotos(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	room := h.svc.CreateRoom(ctx, "Garage", 0, 0)
	item, err := h.svc.CreateItem(ctx, room.ID, inventory.Furniture, domain.Item{Name: "Bench"})
	require.NoError(t, err)

	_, err = h.svc.UploadRoomPhotos(ctx, room.ID, []Upload{{Data: []byte("a")}, {Data: []byte("b")}})
	require.NoError(t, err)
	_, err = h.svc.SetItemPhoto(ctx, room.ID, item.ID, Upload{Data: []byte("c")})
	require.NoError(t, err)

	require.NoError(t, h.svc.DeleteRoom(ctx, room.ID))
	h.coord.Wait()

	assert.Zero(t, h.photos.count())
	_, err = h.svc.GetRoom(ctx, room.ID)
	assert.True(t, errors.Is(err, inventory.ErrRoomNotFound))
}

func TestQuoteServiceDeleteItemReleasesPhoto(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	room := h.svc.CreateRoom(ctx, "Garage", 0, 0)
	item, err := h.svc.CreateItem(ctx, room.ID, inventory.Furniture, domain.Item{Name: "Bench"})
	require.NoError(t, err)
	_, err = h.svc.SetItemPhoto(ctx, room.ID, item.ID, Upload{Data: []byte("c")})
	require.NoError(t, err)

	require.NoError(t, h.svc.DeleteItem(ctx, room.ID, item.ID))
	h.coord.Wait()

	assert.Zero(t, h.photos.count())
	err = h.svc.DeleteItem(ctx, room.ID, item.ID)
	assert.True(t, errors.Is(err, inventory.ErrItemNotFound))
}

func TestQuoteServiceSaveQuote(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	h.svc.UpdateJob(ctx, domain.JobInput{ClientName: "Jane Doe", Movers: 2, HoursLow: 4, HoursHigh: 5, Vehicles: 1, Mileage: 10})

	quote, err := h.svc.SaveQuote(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", quote.ClientName)
	assert.Equal(t, "660.00", quote.TotalLow)
	assert.Equal(t, "822.00", quote.TotalHigh)

	var snap report.Snapshot
	require.NoError(t, json.Unmarshal(quote.Snapshot, &snap))
	assert.Equal(t, "Jane Doe", snap.Inventory.ClientName)

	quotes, err := h.svc.ListQuotes(ctx)
	require.NoError(t, err)
	assert.Len(t, quotes, 1)

	got, err := h.svc.GetQuote(ctx, quote.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, quote.ID, got.ID)
}

func TestQuoteServiceReportCSV(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	room := h.svc.CreateRoom(ctx, "Den", 10, 8)
	_, err := h.svc.SetOverrides(ctx, room.ID, domain.MaterialQuantities{Boxes: 5})
	require.NoError(t, err)

	snap, err := h.svc.Report(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf, snap))
	assert.True(t, strings.Contains(buf.String(), "Den (10x8): Furniture - ; Packing - ; Materials - Boxes: 5"))
	assert.Equal(t, "680.00", snap.Estimate.Estimate.Low.StringFixed(2))
}

func TestQuoteServiceDetectionFailureIsNonFatal(t *testing.T) {
	h := newTestService(t)
	h.det.err = vision.ErrUnavailable
	ctx := context.Background()
	room := h.svc.CreateRoom(ctx, "Den", 0, 0)

	_, err := h.svc.UploadRoomPhotos(ctx, room.ID, []Upload{{Data: []byte("x")}})
	require.NoError(t, err)
	h.coord.Wait()

	got, err := h.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.DetectionNotice)
	assert.True(t, got.Estimated.IsZero())
}

func TestQuoteServiceItemPhotoOnPackingItemIsReleased(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	h.det.byContent["dishes"] = cups(10)

	room := h.svc.CreateRoom(ctx, "Kitchen", 0, 0)
	_, err := h.svc.UploadRoomPhotos(ctx, room.ID, []Upload{{Data: []byte("dishes")}})
	require.NoError(t, err)
	h.coord.Wait()

	got, err := h.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, got.PackingItems, 1)

	_, err = h.svc.SetItemPhoto(ctx, room.ID, got.PackingItems[0].ID, Upload{Data: []byte("sofa")})
	assert.True(t, errors.Is(err, inventory.ErrNotFurniture))
	assert.Equal(t, 1, h.photos.count())

	require.NoError(t, h.svc.Reaggregate(ctx, room.ID))
	h.coord.Wait()
	assert.Equal(t, 1, h.photos.count())
}
