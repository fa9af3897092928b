package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/movequote/internal/domain"
	"github.com/vbonduro/movequote/internal/inventory"
)

type roomRequest struct {
	Name   string        `json:"name"`
	Width  domain.Number `json:"width"`
	Length domain.Number `json:"length"`
}

type roomPatchRequest struct {
	Name   *string        `json:"name"`
	Width  *domain.Number `json:"width"`
	Length *domain.Number `json:"length"`
}

type itemRequest struct {
	Name   string        `json:"name"`
	Kind   string        `json:"kind"`
	Width  domain.Number `json:"width"`
	Length domain.Number `json:"length"`
	Height domain.Number `json:"height"`
}

type itemPatchRequest struct {
	Name          *string        `json:"name"`
	Width         *domain.Number `json:"width"`
	Length        *domain.Number `json:"length"`
	Height        *domain.Number `json:"height"`
	IsPackingItem *bool          `json:"isPackingItem"`
}

func floatPtr(n *domain.Number) *float64 {
	if n == nil {
		return nil
	}
	f := n.Float()
	return &f
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	room := s.service.CreateRoom(r.Context(), name, req.Width.Float(), req.Length.Float())
	writeJSON(w, http.StatusCreated, room, s.logger)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseRoomID(r)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	room, err := s.service.GetRoom(r.Context(), roomID)
	if err != nil {
		s.writeServiceError(w, err, "failed to get room", "room_id", roomID)
		return
	}
	writeJSON(w, http.StatusOK, room, s.logger)
}

func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseRoomID(r)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	var req roomPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			http.Error(w, "name must not be empty", http.StatusBadRequest)
			return
		}
		req.Name = &name
	}

	room, err := s.service.UpdateRoom(r.Context(), roomID, inventory.RoomPatch{
		Name:   req.Name,
		Width:  floatPtr(req.Width),
		Length: floatPtr(req.Length),
	})
	if err != nil {
		s.writeServiceError(w, err, "failed to update room", "room_id", roomID)
		return
	}
	writeJSON(w, http.StatusOK, room, s.logger)
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseRoomID(r)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteRoom(r.Context(), roomID); err != nil {
		s.writeServiceError(w, err, "failed to delete room", "room_id", roomID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetOverrides(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseRoomID(r)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	var req domain.QuantitiesInput
	if !decodeJSON(w, r, &req) {
		return
	}

	room, err := s.service.SetOverrides(r.Context(), roomID, req.Quantities())
	if err != nil {
		s.writeServiceError(w, err, "failed to set overrides", "room_id", roomID)
		return
	}
	writeJSON(w, http.StatusOK, room, s.logger)
}

func (s *Server) handleReaggregate(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseRoomID(r)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	if err := s.service.Reaggregate(r.Context(), roomID); err != nil {
		s.writeServiceError(w, err, "failed to reaggregate room", "room_id", roomID)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseRoomID(r)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	item, err := s.service.CreateItem(r.Context(), roomID, inventory.ParseItemKind(req.Kind), domain.Item{
		Name:   name,
		Width:  req.Width.Float(),
		Length: req.Length.Float(),
		Height: req.Height.Float(),
	})
	if err != nil {
		s.writeServiceError(w, err, "failed to create item", "room_id", roomID)
		return
	}
	writeJSON(w, http.StatusCreated, item, s.logger)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseRoomID(r)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	itemID := chi.URLParam(r, "itemID")
	var req itemPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := s.service.UpdateItem(r.Context(), roomID, itemID, inventory.ItemPatch{
		Name:          req.Name,
		Width:         floatPtr(req.Width),
		Length:        floatPtr(req.Length),
		Height:        floatPtr(req.Height),
		IsPackingItem: req.IsPackingItem,
	})
	if err != nil {
		s.writeServiceError(w, err, "failed to update item", "room_id", roomID, "item_id", itemID)
		return
	}
	writeJSON(w, http.StatusOK, item, s.logger)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseRoomID(r)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	itemID := chi.URLParam(r, "itemID")
	if err := s.service.DeleteItem(r.Context(), roomID, itemID); err != nil {
		s.writeServiceError(w, err, "failed to delete item", "room_id", roomID, "item_id", itemID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
