// Package detection runs photo detection in the background and folds the
// results into the inventory.
//
// Each room has one FIFO queue drained by at most one worker, so results for
// a room are applied in submission order. Every task remembers the room
// epoch it was queued under. Removing a photo bumps the epoch, cancels the
// room's outstanding tasks and replays the remaining photos, so a result
// computed against the old photo set can never be applied.
package detection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/vbonduro/movequote/internal/domain"
	"github.com/vbonduro/movequote/internal/inventory"
	"github.com/vbonduro/movequote/internal/materials"
	"github.com/vbonduro/movequote/internal/metrics"
	"github.com/vbonduro/movequote/internal/vision"
)

const (
	roomFailureNotice = "Failed to analyze room photo. Try another image or use manual overrides."
	itemFailureNotice = "Failed to analyze furniture photo. Edit item name and dimensions manually."
)

var ErrClosed = errors.New("detection coordinator closed")

// Policy controls how a room photo's quantities merge into the room.
type Policy int

const (
	// Replace zeroes the room's estimated quantities, drops detected packing
	// items, then applies the photo's quantities and candidates.
	Replace Policy = iota
	// Accumulate adds the photo's quantities and emits no candidates.
	Accumulate
)

func (p Policy) String() string {
	if p == Replace {
		return "replace"
	}
	return "accumulate"
}

// PhotoSource loads stored photo bytes.
type PhotoSource interface {
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
}

type Options struct {
	// Concurrency bounds detector calls across all rooms. Defaults to 1.
	Concurrency int64
	// Timeout bounds a single detector call. Zero means no timeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

type Coordinator struct {
	inv      *inventory.Inventory
	detector vision.Detector
	photos   PhotoSource
	gate     *semaphore.Weighted
	timeout  time.Duration
	logger   *slog.Logger

	roomMetrics *metrics.Recorder
	itemMetrics *metrics.Recorder

	base   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queues map[int64]*roomQueue
	closed bool
	wg     sync.WaitGroup
}

type roomQueue struct {
	tasks   []*task
	current *task
	running bool
}

type task struct {
	ctx    context.Context
	cancel context.CancelFunc

	roomID int64
	epoch  uint64
	photo  domain.PhotoRef
	policy Policy
	// itemID is set for furniture photo tasks.
	itemID string
}

func (t *task) isItem() bool {
	return t.itemID != ""
}

func New(inv *inventory.Inventory, detector vision.Detector, photos PhotoSource, opts Options) *Coordinator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		inv:         inv,
		detector:    detector,
		photos:      photos,
		gate:        semaphore.NewWeighted(opts.Concurrency),
		timeout:     opts.Timeout,
		logger:      opts.Logger,
		roomMetrics: metrics.NewRecorder("room_photo"),
		itemMetrics: metrics.NewRecorder("item_photo"),
		base:        base,
		cancel:      cancel,
		queues:      make(map[int64]*roomQueue),
	}
}

// AddRoomPhotos attaches photos to the room and queues one detection task per
// photo in order. The first photo added to a room without photos replaces the
// room's estimate; every other photo accumulates onto it.
func (c *Coordinator) AddRoomPhotos(ctx context.Context, roomID int64, photos ...domain.PhotoRef) error {
	if len(photos) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	var tasks []*task
	err := c.inv.UpdateRoom(roomID, func(tx *inventory.RoomTx) error {
		for _, p := range photos {
			policy := Accumulate
			if len(tx.Room.Photos) == 0 {
				policy = Replace
			}
			tx.Room.Photos = append(tx.Room.Photos, p)
			tasks = append(tasks, c.newTask(roomID, tx.Epoch, p, policy, ""))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to attach photos: %w", err)
	}

	c.enqueueLocked(roomID, tasks...)
	return nil
}

// RemoveRoomPhoto detaches the photo and rebuilds the room's estimate from
// the photos that remain. The room's estimated quantities and detected items
// are reset before this returns; the replay runs in the background. The
// returned refs, removed photo first, are no longer referenced by the room
// and their bytes can be released.
func (c *Coordinator) RemoveRoomPhoto(ctx context.Context, roomID int64, photoID string) ([]domain.PhotoRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed domain.PhotoRef
	dropped, err := c.resetLocked(roomID, func(room *domain.Room) error {
		idx := photoIndex(room.Photos, photoID)
		if idx < 0 {
			return inventory.ErrPhotoNotFound
		}
		removed = room.Photos[idx]
		room.Photos = append(room.Photos[:idx], room.Photos[idx+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.PhotoRef{removed}, dropped...), nil
}

// Reaggregate discards the room's detected state and replays all its photos.
// It returns the photos of discarded detected items.
func (c *Coordinator) Reaggregate(ctx context.Context, roomID int64) ([]domain.PhotoRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetLocked(roomID, nil)
}

// resetLocked bumps the room epoch, clears detector-owned state and queues a
// replay of the room's photos. edit runs first under the same room lock.
// Photos attached to discarded detected items are returned.
func (c *Coordinator) resetLocked(roomID int64, edit func(room *domain.Room) error) ([]domain.PhotoRef, error) {
	if c.closed {
		return nil, ErrClosed
	}

	var replay []*task
	var dropped []domain.PhotoRef
	err := c.inv.UpdateRoom(roomID, func(tx *inventory.RoomTx) error {
		if edit != nil {
			if err := edit(tx.Room); err != nil {
				return err
			}
		}
		tx.Epoch++
		tx.Room.Estimated = domain.MaterialQuantities{}
		dropped = detectedPhotos(tx.Room.PackingItems)
		tx.Room.PackingItems = withoutDetected(tx.Room.PackingItems)
		tx.Room.DetectionNotice = ""

		for i, p := range tx.Room.Photos {
			policy := Accumulate
			if i == 0 {
				policy = Replace
			}
			replay = append(replay, c.newTask(roomID, tx.Epoch, p, policy, ""))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.cancelLocked(roomID, func(t *task) bool { return !t.isItem() })
	c.enqueueLocked(roomID, replay...)
	return dropped, nil
}

// SetItemPhoto attaches photo to a furniture item and queues a task that
// overwrites the item's name and dimensions. Packing items are rejected with
// inventory.ErrNotFurniture. The photo it replaced, if any, is returned so its
// bytes can be released.
func (c *Coordinator) SetItemPhoto(ctx context.Context, roomID int64, itemID string, photo domain.PhotoRef) (*domain.PhotoRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	var previous *domain.PhotoRef
	var t *task
	err := c.inv.UpdateRoom(roomID, func(tx *inventory.RoomTx) error {
		item := inventory.FindFurniture(tx.Room, itemID)
		if item == nil {
			if inventory.FindItem(tx.Room, itemID) != nil {
				return inventory.ErrNotFurniture
			}
			return inventory.ErrItemNotFound
		}
		previous = item.Photo
		p := photo
		item.Photo = &p
		t = c.newTask(roomID, tx.Epoch, photo, Replace, itemID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.cancelLocked(roomID, func(q *task) bool { return q.itemID == itemID })
	c.enqueueLocked(roomID, t)
	return previous, nil
}

// RemoveItemPhoto detaches the item's photo and returns it. The item keeps
// whatever name and dimensions it had.
func (c *Coordinator) RemoveItemPhoto(ctx context.Context, roomID int64, itemID string) (domain.PhotoRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed domain.PhotoRef
	err := c.inv.UpdateRoom(roomID, func(tx *inventory.RoomTx) error {
		item := inventory.FindItem(tx.Room, itemID)
		if item == nil {
			return inventory.ErrItemNotFound
		}
		if item.Photo == nil {
			return inventory.ErrPhotoNotFound
		}
		removed = *item.Photo
		item.Photo = nil
		return nil
	})
	if err != nil {
		return domain.PhotoRef{}, err
	}

	c.cancelLocked(roomID, func(t *task) bool { return t.itemID == itemID })
	return removed, nil
}

// ForgetItem cancels outstanding work for an item that has been removed.
func (c *Coordinator) ForgetItem(roomID int64, itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked(roomID, func(t *task) bool { return t.itemID == itemID })
}

// ForgetRoom cancels outstanding work for a room that has been removed.
func (c *Coordinator) ForgetRoom(roomID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked(roomID, func(*task) bool { return true })
}

// Wait blocks until every queued task has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels all outstanding work and waits for the workers to exit.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.cancel()
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Coordinator) newTask(roomID int64, epoch uint64, photo domain.PhotoRef, policy Policy, itemID string) *task {
	ctx, cancel := context.WithCancel(c.base)
	return &task{
		ctx:    ctx,
		cancel: cancel,
		roomID: roomID,
		epoch:  epoch,
		photo:  photo,
		policy: policy,
		itemID: itemID,
	}
}

func (c *Coordinator) enqueueLocked(roomID int64, tasks ...*task) {
	if len(tasks) == 0 {
		return
	}
	q, ok := c.queues[roomID]
	if !ok {
		q = &roomQueue{}
		c.queues[roomID] = q
	}
	q.tasks = append(q.tasks, tasks...)
	metrics.RecordEnqueued(len(tasks))

	if !q.running {
		q.running = true
		c.wg.Add(1)
		go c.run(roomID, q)
	}
}

// cancelLocked cancels queued and in-flight tasks of the room that match.
// Cancelled tasks stay queued and are skipped by the worker.
func (c *Coordinator) cancelLocked(roomID int64, match func(*task) bool) {
	q, ok := c.queues[roomID]
	if !ok {
		return
	}
	if q.current != nil && match(q.current) {
		q.current.cancel()
	}
	for _, t := range q.tasks {
		if match(t) {
			t.cancel()
		}
	}
}

func (c *Coordinator) run(roomID int64, q *roomQueue) {
	defer c.wg.Done()
	for {
		c.mu.Lock()
		if len(q.tasks) == 0 {
			q.running = false
			q.current = nil
			delete(c.queues, roomID)
			c.mu.Unlock()
			return
		}
		t := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.current = t
		c.mu.Unlock()

		metrics.RecordDequeued()
		c.process(t)
		t.cancel()
	}
}

func (c *Coordinator) recorder(t *task) *metrics.Recorder {
	if t.isItem() {
		return c.itemMetrics
	}
	return c.roomMetrics
}

func (c *Coordinator) process(t *task) {
	rec := c.recorder(t)
	log := c.logger.With("room_id", t.roomID, "photo_id", t.photo.ID)
	if t.isItem() {
		log = log.With("item_id", t.itemID)
	}

	if t.ctx.Err() != nil || !c.valid(t) {
		log.Debug("skipping stale detection task")
		rec.RecordOutcome(metrics.OutcomeStale)
		return
	}

	detections, err := c.detect(t, rec)
	if err != nil {
		if t.ctx.Err() != nil {
			log.Debug("detection cancelled", "error", err)
			rec.RecordOutcome(metrics.OutcomeCancelled)
			return
		}
		log.Error("failed to detect objects", "error", err)
		rec.RecordOutcome(metrics.OutcomeFailed)
		c.markFailed(t)
		return
	}

	applied, err := c.apply(t, detections)
	switch {
	case err != nil:
		log.Debug("detection result not applied", "error", err)
		rec.RecordOutcome(metrics.OutcomeStale)
	case !applied:
		log.Debug("discarding stale detection result")
		rec.RecordOutcome(metrics.OutcomeStale)
	default:
		log.Info("applied detection result", "detections", len(detections), "policy", t.policy.String())
		rec.RecordOutcome(metrics.OutcomeApplied)
	}
}

func (c *Coordinator) detect(t *task, rec *metrics.Recorder) ([]vision.Detection, error) {
	if err := c.gate.Acquire(t.ctx, 1); err != nil {
		return nil, err
	}
	defer c.gate.Release(1)

	ctx := t.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	rc, mimeType, err := c.photos.Get(ctx, t.photo.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load photo: %w", err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			c.logger.Error("failed to close photo reader", "error", cerr)
		}
	}()
	if t.photo.MimeType != "" {
		mimeType = t.photo.MimeType
	}

	start := time.Now()
	detections, err := c.detector.Detect(ctx, rc, mimeType)
	rec.RecordDetection(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to run detector: %w", err)
	}
	return detections, nil
}

// valid reports whether t still describes the current state of its room.
func (c *Coordinator) valid(t *task) bool {
	ok := false
	err := c.inv.UpdateRoom(t.roomID, func(tx *inventory.RoomTx) error {
		ok = taskCurrent(tx, t)
		return nil
	})
	return err == nil && ok
}

func taskCurrent(tx *inventory.RoomTx, t *task) bool {
	if t.ctx.Err() != nil {
		return false
	}
	if t.isItem() {
		item := inventory.FindFurniture(tx.Room, t.itemID)
		return item != nil && item.Photo != nil && item.Photo.ID == t.photo.ID
	}
	return tx.Epoch == t.epoch && photoIndex(tx.Room.Photos, t.photo.ID) >= 0
}

func (c *Coordinator) apply(t *task, detections []vision.Detection) (bool, error) {
	applied := false
	err := c.inv.UpdateRoom(t.roomID, func(tx *inventory.RoomTx) error {
		if !taskCurrent(tx, t) {
			return nil
		}
		applied = true
		if t.isItem() {
			applyFurniture(inventory.FindFurniture(tx.Room, t.itemID), materials.IdentifyFurniture(detections))
			return nil
		}

		res := materials.Estimate(detections)
		room := tx.Room
		room.DetectionNotice = ""
		if t.policy == Accumulate {
			room.Estimated = room.Estimated.Add(res.Quantities)
			return nil
		}
		room.Estimated = res.Quantities
		room.PackingItems = withoutDetected(room.PackingItems)
		for _, cand := range res.Candidates {
			cand.ID = tx.NewItemID()
			room.PackingItems = append(room.PackingItems, cand)
		}
		return nil
	})
	return applied, err
}

func (c *Coordinator) markFailed(t *task) {
	notice := roomFailureNotice
	if t.isItem() {
		notice = itemFailureNotice
	}
	err := c.inv.UpdateRoom(t.roomID, func(tx *inventory.RoomTx) error {
		if taskCurrent(tx, t) {
			tx.Room.DetectionNotice = notice
		}
		return nil
	})
	if err != nil {
		c.logger.Debug("room gone before failure notice", "room_id", t.roomID, "error", err)
	}
}

func applyFurniture(item *domain.Item, f materials.Furniture) {
	item.Name = f.Name
	item.Width = f.Width
	item.Length = f.Length
	item.Height = f.Height
}

func detectedPhotos(items []domain.Item) []domain.PhotoRef {
	var refs []domain.PhotoRef
	for _, it := range items {
		if it.Detected && it.Photo != nil {
			refs = append(refs, *it.Photo)
		}
	}
	return refs
}

func withoutDetected(items []domain.Item) []domain.Item {
	out := items[:0]
	for _, it := range items {
		if !it.Detected {
			out = append(out, it)
		}
	}
	return out
}

func photoIndex(photos []domain.PhotoRef, id string) int {
	for i := range photos {
		if photos[i].ID == id {
			return i
		}
	}
	return -1
}
