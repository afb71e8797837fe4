// internal/handlers/api_server.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/mpetras/castdraft/internal/auth"
	"github.com/mpetras/castdraft/internal/models"
	"github.com/mpetras/castdraft/internal/room"
	"github.com/mpetras/castdraft/internal/seed"
)

// RoomInserter persists a freshly created room.
type RoomInserter interface {
	InsertRoom(ctx context.Context, r *models.Room) error
}

// APIServer serves the plain-HTTP endpoints that sit alongside the room
// websocket: health check and room creation.
type APIServer struct {
	repo  RoomInserter
	store *room.Store
	log   *logrus.Logger
}

func NewAPIServer(repo RoomInserter, store *room.Store, logger *logrus.Logger) *APIServer {
	return &APIServer{repo: repo, store: store, log: logger}
}

// PingHandler responds 200 OK for liveness checks.
func (s *APIServer) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type createRoomResponse struct {
	RoomID       string `json:"roomId"`
	HostAdminKey string `json:"hostAdminKey"`
}

// CreateRoomHandler provisions a new room: a short join code, an admin key
// returned exactly once to the caller, and the contestant catalog from
// CAST_FILE if one is configured.
func (s *APIServer) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code, err := auth.GenerateRoomCode()
	if err != nil {
		s.log.Errorf("failed to generate room code: %v", err)
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}
	adminKey, err := auth.GenerateAdminKey()
	if err != nil {
		s.log.Errorf("failed to generate admin key: %v", err)
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}
	hash, err := auth.HashAdminKey(adminKey)
	if err != nil {
		s.log.Errorf("failed to hash admin key: %v", err)
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	newRoom := models.NewRoom(code, hash)

	if castFile := os.Getenv("CAST_FILE"); castFile != "" {
		drafts, err := seed.LoadCatalog(castFile)
		if err != nil {
			// A broken catalog should not block room creation; the admin can
			// still add contestants over the wire.
			s.log.Warnf("failed to load cast file %s: %v", castFile, err)
		}
		for _, d := range drafts {
			c := models.NewContestant(d)
			newRoom.Contestants[c.ID] = c
		}
	}

	if err := s.repo.InsertRoom(r.Context(), newRoom); err != nil {
		s.log.Errorf("failed to insert room %s: %v", code, err)
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}
	s.store.Put(newRoom)

	s.log.Infof("room %s created with %d contestants", code, len(newRoom.Contestants))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(createRoomResponse{
		RoomID:       code,
		HostAdminKey: adminKey,
	})
}
