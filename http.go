package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"

	"warp-and-wind/server/catalog"
)

// NewHTTPHandler assembles the route table around a hub: the REST surface,
// the WebSocket endpoint, and the static client bundle. A nil catalog
// disables the variant endpoints; an empty clientDir disables static
// serving.
func NewHTTPHandler(hub *Hub, cat *catalog.Catalog, clientDir string) http.Handler {
	router := way.NewRouter()

	router.HandleFunc("GET", "/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	router.HandleFunc("GET", "/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		payload := struct {
			Status     string                  `json:"status"`
			ServerTime int64                   `json:"serverTime"`
			TickRate   int                     `json:"tickRate"`
			Heartbeat  int64                   `json:"heartbeatMillis"`
			Snakes     []diagnosticsSubscriber `json:"snakes"`
			Telemetry  TelemetrySnapshot       `json:"telemetry"`
			Portals    PortalManagerStats      `json:"portals"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			TickRate:   TickRate(),
			Heartbeat:  HeartbeatInterval().Milliseconds(),
			Snakes:     hub.DiagnosticsSnapshot(),
			Telemetry:  hub.TelemetrySnapshot(),
			Portals:    hub.PortalStats(),
		}
		writeJSON(w, payload)
	})

	router.HandleFunc("POST", "/join", func(w http.ResponseWriter, r *http.Request) {
		join, err := hub.Join()
		if err != nil {
			http.Error(w, "no room to join", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, join)
	})

	router.HandleFunc("POST", "/world/reset", func(w http.ResponseWriter, r *http.Request) {
		cfg := hub.CurrentConfig()

		type resetRequest struct {
			Seed          *string `json:"seed"`
			FoodCount     *int    `json:"foodCount"`
			HazardCount   *int    `json:"hazardCount"`
			PortalVariant *string `json:"portalVariant"`
		}

		if r.Body != nil {
			defer r.Body.Close()
			var req resetRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
				http.Error(w, "invalid payload", http.StatusBadRequest)
				return
			}
			if req.Seed != nil {
				cfg.Seed = *req.Seed
			}
			if req.FoodCount != nil {
				cfg.FoodCount = *req.FoodCount
			}
			if req.HazardCount != nil {
				cfg.HazardCount = *req.HazardCount
			}
			if req.PortalVariant != nil {
				if cat == nil {
					http.Error(w, "no portal catalog loaded", http.StatusBadRequest)
					return
				}
				variant, ok := cat.Resolve(*req.PortalVariant)
				if !ok {
					http.Error(w, "unknown portal variant", http.StatusBadRequest)
					return
				}
				cfg = cfg.ApplyPortalVariant(variant)
			}
		}

		snapshot := hub.ResetWorld(cfg)
		hub.ForceKeyframe()

		response := struct {
			Status   string        `json:"status"`
			Config   WorldConfig   `json:"config"`
			Snapshot WorldSnapshot `json:"snapshot"`
		}{Status: "ok", Config: hub.CurrentConfig(), Snapshot: snapshot}
		writeJSON(w, response)
	})

	router.HandleFunc("GET", "/catalog", func(w http.ResponseWriter, r *http.Request) {
		if cat == nil {
			http.Error(w, "no portal catalog loaded", http.StatusNotFound)
			return
		}
		payload := struct {
			Version  int      `json:"version"`
			Variants []string `json:"variants"`
			Active   string   `json:"active,omitempty"`
		}{Version: cat.Version, Variants: cat.Names(), Active: hub.CurrentConfig().PortalVariant}
		writeJSON(w, payload)
	})

	router.HandleFunc("GET", "/catalog/:name", func(w http.ResponseWriter, r *http.Request) {
		if cat == nil {
			http.Error(w, "no portal catalog loaded", http.StatusNotFound)
			return
		}
		name := way.Param(r.Context(), "name")
		variant, ok := cat.Resolve(name)
		if !ok {
			http.Error(w, "unknown portal variant", http.StatusNotFound)
			return
		}
		writeJSON(w, variant)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	router.HandleFunc("GET", "/ws", func(w http.ResponseWriter, r *http.Request) {
		snakeID := r.URL.Query().Get("id")
		if snakeID == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade failed for %s: %v", snakeID, err)
			return
		}

		sub, snapshot, ok := hub.Subscribe(snakeID, conn)
		if !ok {
			message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown snake")
			conn.WriteMessage(websocket.CloseMessage, message)
			conn.Close()
			return
		}

		if !hub.SendTo(snakeID, sub, hub.InitialState(snapshot)) {
			return
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				hub.Disconnect(snakeID)
				return
			}

			var msg clientMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				log.Printf("discarding malformed message from %s: %v", snakeID, err)
				continue
			}

			switch msg.Type {
			case "turn":
				if !hub.QueueTurn(snakeID, msg.Facing) {
					log.Printf("turn ignored for %s: facing %q", snakeID, msg.Facing)
				}
			case "restart":
				if !hub.QueueRestart(snakeID) {
					log.Printf("restart ignored for unknown snake %s", snakeID)
				}
			case "heartbeat":
				now := time.Now()
				rtt, ok := hub.UpdateHeartbeat(snakeID, now, msg.SentAt)
				if !ok {
					continue
				}
				ack := heartbeatAckMessage{
					Ver:        ProtocolVersion,
					Type:       "heartbeat",
					ServerTime: now.UnixMilli(),
					ClientTime: msg.SentAt,
					RTTMillis:  rtt.Milliseconds(),
				}
				if !hub.SendTo(snakeID, sub, ack) {
					return
				}
			case "keyframeRequest":
				frame, nack := hub.Keyframe(msg.Sequence)
				if nack != nil {
					if !hub.SendTo(snakeID, sub, nack) {
						return
					}
					continue
				}
				if !hub.SendTo(snakeID, sub, frame) {
					return
				}
			default:
				log.Printf("unknown message type %q from %s", msg.Type, snakeID)
			}
		}
	})

	if clientDir != "" {
		router.NotFound = http.FileServer(http.Dir(clientDir))
	}

	return router
}

func writeJSON(w http.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to encode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
