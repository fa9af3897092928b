package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vbonduro/movequote/internal/detection"
	"github.com/vbonduro/movequote/internal/domain"
	"github.com/vbonduro/movequote/internal/estimate"
	"github.com/vbonduro/movequote/internal/inventory"
	"github.com/vbonduro/movequote/internal/metrics"
	"github.com/vbonduro/movequote/internal/photostore"
	"github.com/vbonduro/movequote/internal/rates"
	"github.com/vbonduro/movequote/internal/report"
)

// rateRepository is the subset of store.RateStore that QuoteService requires.
type rateRepository interface {
	Load(ctx context.Context) (domain.RateSchedule, error)
	Save(ctx context.Context, rates domain.RateSchedule) error
	Reset(ctx context.Context) error
}

// quoteRepository is the subset of store.QuoteStore that QuoteService requires.
type quoteRepository interface {
	Create(ctx context.Context, clientName, totalLow, totalHigh string, snapshot []byte) (*domain.SavedQuote, error)
	GetByID(ctx context.Context, id int64) (*domain.SavedQuote, error)
	List(ctx context.Context) ([]*domain.SavedQuote, error)
	Delete(ctx context.Context, id int64) error
}

// Upload is one uploaded photo.
type Upload struct {
	Data     []byte
	MimeType string
}

type QuoteService struct {
	inv        *inventory.Inventory
	detector   *detection.Coordinator
	rateStore  rateRepository
	quoteStore quoteRepository
	photoStg   photostore.PhotoStore
	defaults   domain.RateSchedule
	logger     *slog.Logger
}

func NewQuoteService(
	inv *inventory.Inventory,
	detector *detection.Coordinator,
	rateStore rateRepository,
	quoteStore quoteRepository,
	photoStg photostore.PhotoStore,
	defaults domain.RateSchedule,
	logger *slog.Logger,
) *QuoteService {
	return &QuoteService{
		inv:        inv,
		detector:   detector,
		rateStore:  rateStore,
		quoteStore: quoteStore,
		photoStg:   photoStg,
		defaults:   defaults,
		logger:     logger,
	}
}

func (s *QuoteService) Inventory() domain.Inventory {
	return s.inv.Snapshot()
}

func (s *QuoteService) Job() domain.JobDetails {
	return s.inv.Details()
}

func (s *QuoteService) UpdateJob(ctx context.Context, in domain.JobInput) domain.JobDetails {
	details := in.Details()
	s.inv.SetDetails(details)
	s.logger.Info("job details updated", "client_name", details.ClientName)
	return details
}

// Rates returns the configured defaults with persisted overrides on top.
func (s *QuoteService) Rates(ctx context.Context) (domain.RateSchedule, error) {
	stored, err := s.rateStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rates: %w", err)
	}
	return s.defaults.Merge(stored), nil
}

func (s *QuoteService) UpdateRates(ctx context.Context, updates domain.RateSchedule) (domain.RateSchedule, error) {
	if err := rates.Validate(updates); err != nil {
		return nil, err
	}
	if err := s.rateStore.Save(ctx, updates); err != nil {
		return nil, fmt.Errorf("failed to save rates: %w", err)
	}
	s.logger.Info("rates updated", "count", len(updates))
	return s.Rates(ctx)
}

func (s *QuoteService) ResetRates(ctx context.Context) (domain.RateSchedule, error) {
	if err := s.rateStore.Reset(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset rates: %w", err)
	}
	return s.Rates(ctx)
}

func (s *QuoteService) CreateRoom(ctx context.Context, name string, width, length float64) domain.Room {
	room := s.inv.AddRoom(name, width, length)
	s.logger.Info("room created", "room_id", room.ID, "name", name)
	return room
}

func (s *QuoteService) GetRoom(ctx context.Context, roomID int64) (domain.Room, error) {
	return s.inv.Room(roomID)
}

func (s *QuoteService) UpdateRoom(ctx context.Context, roomID int64, patch inventory.RoomPatch) (domain.Room, error) {
	return s.inv.UpdateRoomDetails(roomID, patch)
}

// DeleteRoom removes the room, cancels its detection work and releases
// every photo it owned.
func (s *QuoteService) DeleteRoom(ctx context.Context, roomID int64) error {
	room, err := s.inv.RemoveRoom(roomID)
	if err != nil {
		return err
	}
	s.detector.ForgetRoom(roomID)

	for _, p := range room.Photos {
		s.releasePhoto(ctx, p)
	}
	for _, items := range [][]domain.Item{room.FurnitureItems, room.PackingItems} {
		for _, it := range items {
			if it.Photo != nil {
				s.releasePhoto(ctx, *it.Photo)
			}
		}
	}
	s.logger.Info("room deleted", "room_id", roomID, "photos_released", len(room.Photos))
	return nil
}

func (s *QuoteService) SetOverrides(ctx context.Context, roomID int64, q domain.MaterialQuantities) (domain.Room, error) {
	return s.inv.SetOverride(roomID, q)
}

func (s *QuoteService) CreateItem(ctx context.Context, roomID int64, kind inventory.ItemKind, item domain.Item) (domain.Item, error) {
	return s.inv.AddItem(roomID, kind, item)
}

func (s *QuoteService) UpdateItem(ctx context.Context, roomID int64, itemID string, patch inventory.ItemPatch) (domain.Item, error) {
	return s.inv.UpdateItem(roomID, itemID, patch)
}

func (s *QuoteService) DeleteItem(ctx context.Context, roomID int64, itemID string) error {
	item, err := s.inv.RemoveItem(roomID, itemID)
	if err != nil {
		return err
	}
	s.detector.ForgetItem(roomID, itemID)
	if item.Photo != nil {
		s.releasePhoto(ctx, *item.Photo)
	}
	return nil
}

// UploadRoomPhotos stores the photos and queues them for detection in the
// order given. Detection runs in the background.
func (s *QuoteService) UploadRoomPhotos(ctx context.Context, roomID int64, uploads []Upload) ([]domain.PhotoRef, error) {
	s.logger.Info("upload room photos started", "room_id", roomID, "count", len(uploads))

	if _, err := s.inv.Room(roomID); err != nil {
		return nil, err
	}

	refs := make([]domain.PhotoRef, 0, len(uploads))
	for _, u := range uploads {
		ref, err := s.savePhoto(ctx, fmt.Sprintf("room_%d", roomID), u)
		if err != nil {
			s.releaseAll(ctx, refs)
			return nil, err
		}
		refs = append(refs, ref)
	}

	if err := s.detector.AddRoomPhotos(ctx, roomID, refs...); err != nil {
		s.releaseAll(ctx, refs)
		return nil, fmt.Errorf("failed to queue detection: %w", err)
	}

	s.logger.Info("upload room photos complete", "room_id", roomID, "count", len(refs))
	return refs, nil
}

// DeleteRoomPhoto removes the photo and rebuilds the room's detected
// materials from the photos that remain.
func (s *QuoteService) DeleteRoomPhoto(ctx context.Context, roomID int64, photoID string) error {
	released, err := s.detector.RemoveRoomPhoto(ctx, roomID, photoID)
	if err != nil {
		return err
	}
	s.releaseAll(ctx, released)
	s.logger.Info("room photo deleted", "room_id", roomID, "photo_id", photoID, "released", len(released))
	return nil
}

// Reaggregate rebuilds the room's detected materials from its photos.
func (s *QuoteService) Reaggregate(ctx context.Context, roomID int64) error {
	dropped, err := s.detector.Reaggregate(ctx, roomID)
	if err != nil {
		return err
	}
	s.releaseAll(ctx, dropped)
	return nil
}

// SetItemPhoto stores the photo, attaches it to the item and queues a
// furniture detection for it. A photo previously on the item is released.
func (s *QuoteService) SetItemPhoto(ctx context.Context, roomID int64, itemID string, u Upload) (domain.PhotoRef, error) {
	ref, err := s.savePhoto(ctx, fmt.Sprintf("room_%d_%s", roomID, itemID), u)
	if err != nil {
		return domain.PhotoRef{}, err
	}

	previous, err := s.detector.SetItemPhoto(ctx, roomID, itemID, ref)
	if err != nil {
		s.releasePhoto(ctx, ref)
		return domain.PhotoRef{}, err
	}
	if previous != nil {
		s.releasePhoto(ctx, *previous)
	}
	return ref, nil
}

func (s *QuoteService) DeleteItemPhoto(ctx context.Context, roomID int64, itemID string) error {
	removed, err := s.detector.RemoveItemPhoto(ctx, roomID, itemID)
	if err != nil {
		return err
	}
	s.releasePhoto(ctx, removed)
	return nil
}

// GetPhoto opens a photo owned by the room or one of its items.
func (s *QuoteService) GetPhoto(ctx context.Context, roomID int64, photoID string) (io.ReadCloser, string, error) {
	room, err := s.inv.Room(roomID)
	if err != nil {
		return nil, "", err
	}
	ref, ok := findPhoto(&room, photoID)
	if !ok {
		return nil, "", inventory.ErrPhotoNotFound
	}

	rc, mimeType, err := s.photoStg.Get(ctx, ref.StorageKey)
	if err != nil {
		if errors.Is(err, photostore.ErrNotFound) {
			return nil, "", inventory.ErrPhotoNotFound
		}
		return nil, "", fmt.Errorf("failed to open photo: %w", err)
	}
	if ref.MimeType != "" {
		mimeType = ref.MimeType
	}
	return rc, mimeType, nil
}

func (s *QuoteService) Estimate(ctx context.Context) (estimate.Result, error) {
	r, err := s.Rates(ctx)
	if err != nil {
		return estimate.Result{}, err
	}
	metrics.RecordEstimate("estimate")
	return estimate.Calculate(s.inv.Snapshot(), r), nil
}

func (s *QuoteService) Report(ctx context.Context) (report.Snapshot, error) {
	r, err := s.Rates(ctx)
	if err != nil {
		return report.Snapshot{}, err
	}
	metrics.RecordEstimate("report")
	return report.Build(s.inv, r), nil
}

// SaveQuote persists the current report snapshot.
func (s *QuoteService) SaveQuote(ctx context.Context) (*domain.SavedQuote, error) {
	snap, err := s.Report(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quote: %w", err)
	}

	est := snap.Estimate.Estimate
	quote, err := s.quoteStore.Create(ctx, snap.Inventory.ClientName, est.Low.StringFixed(2), est.High.StringFixed(2), data)
	if err != nil {
		return nil, fmt.Errorf("failed to save quote: %w", err)
	}
	s.logger.Info("quote saved", "quote_id", quote.ID, "client_name", quote.ClientName)
	return quote, nil
}

func (s *QuoteService) ListQuotes(ctx context.Context) ([]*domain.SavedQuote, error) {
	return s.quoteStore.List(ctx)
}

func (s *QuoteService) GetQuote(ctx context.Context, id int64) (*domain.SavedQuote, error) {
	return s.quoteStore.GetByID(ctx, id)
}

func (s *QuoteService) DeleteQuote(ctx context.Context, id int64) error {
	return s.quoteStore.Delete(ctx, id)
}

func (s *QuoteService) savePhoto(ctx context.Context, prefix string, u Upload) (domain.PhotoRef, error) {
	key, err := s.photoStg.Save(ctx, prefix, u.MimeType, bytes.NewReader(u.Data))
	if err != nil {
		return domain.PhotoRef{}, fmt.Errorf("failed to save photo: %w", err)
	}
	s.logger.Debug("photo saved", "storage_key", key, "bytes", len(u.Data))
	return domain.PhotoRef{ID: uuid.NewString(), StorageKey: key, MimeType: u.MimeType}, nil
}

func (s *QuoteService) releasePhoto(ctx context.Context, ref domain.PhotoRef) {
	if err := s.photoStg.Delete(ctx, ref.StorageKey); err != nil {
		s.logger.Error("failed to delete photo file", "photo_id", ref.ID, "storage_key", ref.StorageKey, "error", err)
	}
}

func (s *QuoteService) releaseAll(ctx context.Context, refs []domain.PhotoRef) {
	for _, ref := range refs {
		s.releasePhoto(ctx, ref)
	}
}

func findPhoto(room *domain.Room, photoID string) (domain.PhotoRef, bool) {
	for _, p := range room.Photos {
		if p.ID == photoID {
			return p, true
		}
	}
	for _, items := range [][]domain.Item{room.FurnitureItems, room.PackingItems} {
		for _, it := range items {
			if it.Photo != nil && it.Photo.ID == photoID {
				return *it.Photo, true
			}
		}
	}
	return domain.PhotoRef{}, false
}
