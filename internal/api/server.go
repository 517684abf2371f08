package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bryanchriswhite/framegrab/internal/logger"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Version is reported by /api/health
const Version = "0.1.0"

// Server serves the live preview, capture status and frame events
type Server struct {
	router   *mux.Router
	stream   http.Handler
	tracker  *Tracker
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// NewServer creates a preview server. stream serves the MJPEG preview.
func NewServer(stream http.Handler, tracker *Tracker) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		stream:  stream,
		tracker: tracker,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // viewer may be opened from file:// or another host
			},
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/events", s.handleEvents)
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.Handle("/stream", s.stream).Methods("GET")
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
}

// Handler returns the routed handler with CORS headers applied
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start listens on port and serves in the background. Port 0 picks a free port.
// The bound address is returned.
func (s *Server) Start(port int) (string, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return "", fmt.Errorf("listen on port %d: %w", port, err)
	}

	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	addr := ln.Addr().String()
	log := logger.WithComponent("api")
	log.Info().Str("addr", addr).Msgf("Preview at http://localhost:%d/", ln.Addr().(*net.TCPAddr).Port)

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Preview server failed")
		}
	}()
	return addr, nil
}

// Shutdown stops the server, waiting for in-flight requests until ctx expires.
// Streaming clients are cut off when ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	err := s.httpSrv.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return s.httpSrv.Close()
	}
	return err
}

func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithComponent("api").Debug().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.tracker.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	// Subscribe before the handshake completes so no event is missed
	events := s.tracker.Subscribe()
	defer s.tracker.Unsubscribe(events)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// Detect the client going away; reads are otherwise unused
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "capture finished"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		}
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(viewerHTML))
}

const viewerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>framegrab</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            background: #000;
            color: #ccc;
            font-family: system-ui, -apple-system, sans-serif;
            display: flex;
            flex-direction: column;
            align-items: center;
            min-height: 100vh;
        }
        img {
            max-width: 100vw;
            max-height: calc(100vh - 40px);
            object-fit: contain;
            display: block;
        }
        .bar {
            width: 100%;
            height: 40px;
            display: flex;
            gap: 24px;
            align-items: center;
            padding: 0 16px;
            background: rgba(40, 40, 40, 0.9);
            font-size: 13px;
        }
        .bar span { color: #fff; }
    </style>
</head>
<body>
    <img src="/stream" alt="framegrab preview">
    <div class="bar">
        <div>Frames: <span id="written">0</span></div>
        <div>Skipped: <span id="skipped">0</span></div>
        <div>Last: <span id="last">-</span></div>
    </div>
    <script>
        function refresh() {
            fetch('/api/status')
                .then(r => r.json())
                .then(s => {
                    document.getElementById('written').textContent = s.frames_written;
                    document.getElementById('skipped').textContent = s.frames_skipped;
                })
                .catch(console.error);
        }
        refresh();
        const ws = new WebSocket('ws://' + location.host + '/api/events');
        ws.onmessage = (m) => {
            const ev = JSON.parse(m.data);
            document.getElementById('written').textContent = ev.seq;
            document.getElementById('last').textContent = ev.path.split('/').pop();
        };
        setInterval(refresh, 2000);
    </script>
</body>
</html>`
