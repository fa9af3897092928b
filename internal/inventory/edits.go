package inventory

import (
	"strings"

	"github.com/vbonduro/movequote/internal/domain"
)

// ItemKind selects which list of a room an item lives in.
type ItemKind string

const (
	Furniture ItemKind = "furniture"
	Packing   ItemKind = "packing"
)

// ParseItemKind maps user input to an ItemKind, defaulting to Furniture.
func ParseItemKind(s string) ItemKind {
	if strings.EqualFold(strings.TrimSpace(s), string(Packing)) {
		return Packing
	}
	return Furniture
}

// RoomPatch carries optional room field updates.
type RoomPatch struct {
	Name   *string
	Width  *float64
	Length *float64
}

// ItemPatch carries optional item field updates.
type ItemPatch struct {
	Name          *string
	Width         *float64
	Length        *float64
	Height        *float64
	IsPackingItem *bool
}

func (inv *Inventory) UpdateRoomDetails(roomID int64, p RoomPatch) (domain.Room, error) {
	var room domain.Room
	err := inv.UpdateRoom(roomID, func(tx *RoomTx) error {
		if p.Name != nil {
			tx.Room.Name = *p.Name
		}
		if p.Width != nil {
			tx.Room.Width = domain.NonNegative(*p.Width)
		}
		if p.Length != nil {
			tx.Room.Length = domain.NonNegative(*p.Length)
		}
		room = tx.Room.Clone()
		return nil
	})
	return room, err
}

// SetOverride replaces the room's manually entered material quantities.
// Detection never writes this field.
func (inv *Inventory) SetOverride(roomID int64, q domain.MaterialQuantities) (domain.Room, error) {
	var room domain.Room
	err := inv.UpdateRoom(roomID, func(tx *RoomTx) error {
		tx.Room.Override = domain.MaterialQuantities{
			Boxes:          domain.NonNegative(q.Boxes),
			BubbleWrapFeet: domain.NonNegative(q.BubbleWrapFeet),
			PaperPadBoxes:  domain.NonNegative(q.PaperPadBoxes),
			DishPacks:      domain.NonNegative(q.DishPacks),
		}
		room = tx.Room.Clone()
		return nil
	})
	return room, err
}

// AddItem appends a user-created item and assigns it a fresh id.
func (inv *Inventory) AddItem(roomID int64, kind ItemKind, item domain.Item) (domain.Item, error) {
	err := inv.UpdateRoom(roomID, func(tx *RoomTx) error {
		item.ID = tx.NewItemID()
		item.Detected = false
		item.Photo = nil
		item.Width = domain.NonNegative(item.Width)
		item.Length = domain.NonNegative(item.Length)
		item.Height = domain.NonNegative(item.Height)
		if kind == Packing {
			item.IsPackingItem = true
			tx.Room.PackingItems = append(tx.Room.PackingItems, item)
		} else {
			tx.Room.FurnitureItems = append(tx.Room.FurnitureItems, item)
		}
		return nil
	})
	return item, err
}

func (inv *Inventory) UpdateItem(roomID int64, itemID string, p ItemPatch) (domain.Item, error) {
	var out domain.Item
	err := inv.UpdateRoom(roomID, func(tx *RoomTx) error {
		item := FindItem(tx.Room, itemID)
		if item == nil {
			return ErrItemNotFound
		}
		if p.Name != nil {
			item.Name = *p.Name
		}
		if p.Width != nil {
			item.Width = domain.NonNegative(*p.Width)
		}
		if p.Length != nil {
			item.Length = domain.NonNegative(*p.Length)
		}
		if p.Height != nil {
			item.Height = domain.NonNegative(*p.Height)
		}
		out = *item
		if p.IsPackingItem != nil && *p.IsPackingItem != item.IsPackingItem {
			out = moveItem(tx.Room, itemID, *p.IsPackingItem)
		}
		if out.Photo != nil {
			photo := *out.Photo
			out.Photo = &photo
		}
		return nil
	})
	return out, err
}

// moveItem moves the item to the list matching toPacking. A moved item is
// owned by the user from then on, so it loses its detected mark.
func moveItem(room *domain.Room, itemID string, toPacking bool) domain.Item {
	var moved domain.Item
	if toPacking {
		room.FurnitureItems, moved, _ = removeItem(room.FurnitureItems, itemID)
		moved.IsPackingItem = true
		moved.Detected = false
		room.PackingItems = append(room.PackingItems, moved)
	} else {
		room.PackingItems, moved, _ = removeItem(room.PackingItems, itemID)
		moved.IsPackingItem = false
		moved.Detected = false
		room.FurnitureItems = append(room.FurnitureItems, moved)
	}
	return moved
}

// RemoveItem deletes the item and returns it so the caller can release its
// photo. The id is never reissued.
func (inv *Inventory) RemoveItem(roomID int64, itemID string) (domain.Item, error) {
	var removed domain.Item
	err := inv.UpdateRoom(roomID, func(tx *RoomTx) error {
		var ok bool
		if tx.Room.FurnitureItems, removed, ok = removeItem(tx.Room.FurnitureItems, itemID); ok {
			return nil
		}
		if tx.Room.PackingItems, removed, ok = removeItem(tx.Room.PackingItems, itemID); ok {
			return nil
		}
		return ErrItemNotFound
	})
	return removed, err
}

// FindItem returns a pointer into room's furniture or packing list.
func FindItem(room *domain.Room, itemID string) *domain.Item {
	if item := FindFurniture(room, itemID); item != nil {
		return item
	}
	for i := range room.PackingItems {
		if room.PackingItems[i].ID == itemID {
			return &room.PackingItems[i]
		}
	}
	return nil
}

// FindFurniture returns a pointer into room's furniture list only.
func FindFurniture(room *domain.Room, itemID string) *domain.Item {
	for i := range room.FurnitureItems {
		if room.FurnitureItems[i].ID == itemID {
			return &room.FurnitureItems[i]
		}
	}
	return nil
}

func removeItem(items []domain.Item, itemID string) ([]domain.Item, domain.Item, bool) {
	for i := range items {
		if items[i].ID == itemID {
			removed := items[i]
			return append(items[:i], items[i+1:]...), removed, true
		}
	}
	return items, domain.Item{}, false
}
