// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mpetras/castdraft/internal/auth"
	"github.com/mpetras/castdraft/internal/models"
	"github.com/mpetras/castdraft/internal/room"
)

// wsMessage is the envelope for every inbound client event.
type wsMessage struct {
	Type string `json:"type"`

	// room:join
	PlayerName string `json:"playerName,omitempty"`
	PlayerID   string `json:"playerId,omitempty"`
	Token      string `json:"token,omitempty"`

	// player:update
	Name string `json:"name,omitempty"`

	// admin-gated events
	AdminKey string `json:"adminKey,omitempty"`

	ContestantID string                  `json:"contestantId,omitempty"`
	Contestant   *models.ContestantDraft `json:"contestant,omitempty"`
	Updates      *models.ContestantPatch `json:"updates,omitempty"`
	Settings     *models.SettingsPatch   `json:"settings,omitempty"`

	// auction:bid
	Amount int `json:"amount,omitempty"`
}

// RoomWSHandler upgrades a connection for /rooms/ws/{roomCode} and runs the
// read/write pumps against the engine.
func RoomWSHandler(logger *logrus.Logger, engine *room.Engine, registry *ConnRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		roomID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/rooms/ws/"), "/")
		if roomID == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"castdraft"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "castdraft" {
			c.Close(BadSubprotocolError, "client must speak the castdraft subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		conn := &RoomConnection{
			OutChan: make(chan []byte, 16),
			Cancel:  cancel,
			logger:  logger,
		}

		logger.Infof("client %s connected to room %s", remoteAddr, roomID)

		go writePump(ctx, c, conn, logger)
		readPump(ctx, c, roomID, conn, engine, registry, logger)

		// ---- Cleanup after readPump exits ----
		registry.Remove(roomID, conn)
		cancel()
		if conn.Bound {
			dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := engine.Disconnect(dctx, roomID, conn.PlayerID); err != nil {
				logger.Warnf("room %s: disconnect handling for player %s failed: %v", roomID, conn.PlayerID, err)
			}
			dcancel()
		}
		logger.Infof("client %s left room %s", remoteAddr, roomID)
	}
}

// readPump handles incoming messages until the connection closes.
func readPump(ctx context.Context, c *websocket.Conn, roomID string, conn *RoomConnection, engine *room.Engine, registry *ConnRegistry, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("room %s: websocket closed normally", roomID)
			} else if !strings.Contains(err.Error(), "context canceled") {
				logger.Warnf("room %s: read error: %v", roomID, err)
			}
			return
		}
		if typ != websocket.MessageText {
			logger.Warnf("room %s: ignoring non-text message type %d", roomID, typ)
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("room %s: invalid json: %v", roomID, err)
			conn.WriteError("Invalid JSON format")
			continue
		}

		handleRoomMessage(ctx, msg, roomID, conn, engine, registry, logger)
	}
}

// handleRoomMessage dispatches one inbound event to the engine. Rejections
// are reported to the originating connection only; accepted mutations reach
// everyone through the engine's broadcast.
func handleRoomMessage(ctx context.Context, msg wsMessage, roomID string, conn *RoomConnection, engine *room.Engine, registry *ConnRegistry, logger *logrus.Logger) {
	if msg.Type == "room:join" {
		handleJoin(ctx, msg, roomID, conn, engine, registry, logger)
		return
	}

	if !conn.Bound {
		conn.WriteError("Join the room first")
		return
	}

	var err error
	switch msg.Type {
	case "player:update":
		err = engine.UpdateName(ctx, roomID, conn.PlayerID, msg.Name)

	case "contestant:add":
		if msg.Contestant == nil {
			conn.WriteError("Missing contestant payload")
			return
		}
		err = engine.AddContestant(ctx, roomID, msg.AdminKey, *msg.Contestant)

	case "contestant:edit":
		id, perr := uuid.Parse(msg.ContestantID)
		if perr != nil {
			conn.WriteError("Invalid contestant id")
			return
		}
		var patch models.ContestantPatch
		if msg.Updates != nil {
			patch = *msg.Updates
		}
		err = engine.EditContestant(ctx, roomID, msg.AdminKey, id, patch)

	case "contestant:delete":
		id, perr := uuid.Parse(msg.ContestantID)
		if perr != nil {
			conn.WriteError("Invalid contestant id")
			return
		}
		err = engine.DeleteContestant(ctx, roomID, msg.AdminKey, id)

	case "settings:update":
		if msg.Settings == nil {
			conn.WriteError("Missing settings payload")
			return
		}
		err = engine.UpdateSettings(ctx, roomID, msg.AdminKey, *msg.Settings)

	case "draft:start":
		err = engine.StartDraft(ctx, roomID, msg.AdminKey)

	case "auction:nominate":
		id, perr := uuid.Parse(msg.ContestantID)
		if perr != nil {
			conn.WriteError("Invalid contestant id")
			return
		}
		err = engine.Nominate(ctx, roomID, msg.AdminKey, conn.PlayerID, id)

	case "auction:start":
		err = engine.StartAuction(ctx, roomID, msg.AdminKey)

	case "auction:bid":
		err = engine.PlaceBid(ctx, roomID, conn.PlayerID, msg.Amount)

	case "auction:pause", "auction:resume":
		conn.WriteError("Auction pause is not supported")
		return

	default:
		logger.Warnf("room %s: unknown action %q", roomID, msg.Type)
		conn.WriteError("Unknown action type: " + msg.Type)
		return
	}

	if err != nil {
		conn.WriteError(clientErrorMessage(msg.Type, err))
	}
}

// clientErrorMessage converts an engine error into the transient message
// delivered to the caller.
func clientErrorMessage(action string, err error) string {
	if errors.Is(err, room.ErrUnauthorized) {
		if action == "auction:nominate" {
			return "It's not your turn to nominate"
		}
		return "Unauthorized"
	}
	var inv *room.InvalidStateError
	if errors.As(err, &inv) {
		return inv.Reason
	}
	var val *room.ValidationError
	if errors.As(err, &val) {
		return val.Reason
	}
	return "Failed to process " + action
}

func handleJoin(ctx context.Context, msg wsMessage, roomID string, conn *RoomConnection, engine *room.Engine, registry *ConnRegistry, logger *logrus.Logger) {
	var playerID *uuid.UUID
	if msg.Token != "" {
		pid, tokenRoom, err := auth.AuthenticatePlayerToken(msg.Token)
		if err != nil || tokenRoom != roomID {
			conn.WriteError("Invalid session token")
			return
		}
		playerID = &pid
	} else if msg.PlayerID != "" {
		pid, err := uuid.Parse(msg.PlayerID)
		if err != nil {
			conn.WriteError("Invalid player id")
			return
		}
		playerID = &pid
	}

	p, err := engine.Join(ctx, roomID, msg.PlayerName, playerID)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			conn.WriteError("Room not found")
		} else {
			logger.Warnf("room %s: join failed: %v", roomID, err)
			conn.WriteError("Failed to join room")
		}
		return
	}

	conn.PlayerID = p.ID
	conn.Bound = true
	registry.Add(roomID, conn)

	token, err := auth.CreatePlayerToken(p.ID, roomID)
	if err != nil {
		logger.Warnf("room %s: failed to create session token for %s: %v", roomID, p.ID, err)
	}
	conn.WriteEvent(room.JoinedEvent(p.ID.String(), token))

	// The join broadcast went out before this connection was registered, so
	// deliver the snapshot directly.
	snapshot, err := engine.Snapshot(ctx, roomID)
	if err != nil {
		logger.Warnf("room %s: failed to build snapshot for %s: %v", roomID, p.ID, err)
		return
	}
	conn.Write(snapshot)
}

// writePump drains the out channel to the websocket and sends periodic
// pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *RoomConnection, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-conn.OutChan:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket: %v", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("failed to ping client, assuming disconnect: %v", err)
				return
			}
		}
	}
}
