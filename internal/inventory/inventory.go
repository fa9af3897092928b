// Package inventory holds the mutable job aggregate. Every room mutation,
// whether from a user edit or from detection, goes through UpdateRoom, which
// holds that room's lock for the whole read-modify-write.
package inventory

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vbonduro/movequote/internal/domain"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrPhotoNotFound = errors.New("photo not found")
	// ErrNotFurniture rejects furniture-only operations on packing items.
	ErrNotFurniture = errors.New("item is not a furniture item")
)

// Sequence issues monotonically increasing numbers.
type Sequence interface {
	Next() int64
}

// Counter is a goroutine-safe Sequence starting at 1.
type Counter struct {
	n atomic.Int64
}

func (c *Counter) Next() int64 {
	return c.n.Add(1)
}

type Inventory struct {
	itemIDs Sequence
	roomIDs Counter

	mu      sync.RWMutex
	details domain.JobDetails
	rooms   []*roomEntry
}

type roomEntry struct {
	mu      sync.Mutex
	room    domain.Room
	epoch   uint64
	removed bool
}

// RoomTx is the mutable view handed to UpdateRoom callbacks.
type RoomTx struct {
	Room *domain.Room
	// Epoch counts full re-aggregations of the room's detected materials.
	// Detection results computed under an older epoch are stale.
	Epoch uint64

	inv *Inventory
}

// NewItemID issues the next item id from the inventory's sequence.
func (tx *RoomTx) NewItemID() string {
	return tx.inv.NewItemID()
}

// New returns an empty inventory. itemIDs may be nil, in which case a fresh
// Counter is used.
func New(itemIDs Sequence, details domain.JobDetails) *Inventory {
	if itemIDs == nil {
		itemIDs = &Counter{}
	}
	return &Inventory{itemIDs: itemIDs, details: details}
}

// DefaultRoomName is the room every new job starts with.
const DefaultRoomName = "Living Room"

// NewJob returns an inventory with default job details and one empty room.
func NewJob(itemIDs Sequence) *Inventory {
	inv := New(itemIDs, domain.DefaultJobDetails())
	inv.AddRoom(DefaultRoomName, 0, 0)
	return inv
}

func (inv *Inventory) NewItemID() string {
	return fmt.Sprintf("Item-%d", inv.itemIDs.Next())
}

func (inv *Inventory) Details() domain.JobDetails {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.details
}

func (inv *Inventory) SetDetails(d domain.JobDetails) {
	inv.mu.Lock()
	inv.details = d
	inv.mu.Unlock()
}

func (inv *Inventory) AddRoom(name string, width, length float64) domain.Room {
	entry := &roomEntry{room: domain.Room{
		ID:     inv.roomIDs.Next(),
		Name:   name,
		Width:  domain.NonNegative(width),
		Length: domain.NonNegative(length),
	}}

	inv.mu.Lock()
	inv.rooms = append(inv.rooms, entry)
	inv.mu.Unlock()

	return entry.room.Clone()
}

// RemoveRoom detaches the room and returns its final state so the caller can
// release photo resources it owned.
func (inv *Inventory) RemoveRoom(id int64) (domain.Room, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for i, entry := range inv.rooms {
		if entry.room.ID != id {
			continue
		}
		entry.mu.Lock()
		entry.removed = true
		room := entry.room.Clone()
		entry.mu.Unlock()

		inv.rooms = append(inv.rooms[:i], inv.rooms[i+1:]...)
		return room, nil
	}
	return domain.Room{}, ErrRoomNotFound
}

// UpdateRoom runs fn with exclusive access to the room. Changes made by fn
// are kept even when fn returns an error; callers validate before mutating.
func (inv *Inventory) UpdateRoom(id int64, fn func(tx *RoomTx) error) error {
	entry := inv.lookup(id)
	if entry == nil {
		return ErrRoomNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.removed {
		return ErrRoomNotFound
	}

	tx := &RoomTx{Room: &entry.room, Epoch: entry.epoch, inv: inv}
	err := fn(tx)
	entry.epoch = tx.Epoch
	return err
}

// Room returns a copy of the room.
func (inv *Inventory) Room(id int64) (domain.Room, error) {
	var room domain.Room
	err := inv.UpdateRoom(id, func(tx *RoomTx) error {
		room = tx.Room.Clone()
		return nil
	})
	return room, err
}

// Snapshot returns a deep copy of the whole inventory.
func (inv *Inventory) Snapshot() domain.Inventory {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := domain.Inventory{
		JobDetails: inv.details,
		Rooms:      make([]domain.Room, 0, len(inv.rooms)),
	}
	for _, entry := range inv.rooms {
		entry.mu.Lock()
		out.Rooms = append(out.Rooms, entry.room.Clone())
		entry.mu.Unlock()
	}
	return out
}

func (inv *Inventory) lookup(id int64) *roomEntry {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	for _, entry := range inv.rooms {
		if entry.room.ID == id {
			return entry
		}
	}
	return nil
}
