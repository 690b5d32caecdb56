// Package gateway is the client edge: a websocket listener bridging
// frames to and from per-connection NATS subjects. It holds no game
// logic; the room stays authoritative.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/questline/go-geoquest/internal/messaging"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// Broker is what the gateway needs from the messaging layer.
type Broker interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte)) (func(), error)
}

// WebsocketGateway accepts websocket clients and pumps their frames over
// NATS. One instance is a service worker.
type WebsocketGateway struct {
	port   uint16
	broker Broker

	upgrader websocket.Upgrader
}

// NewWebsocketGateway creates a gateway listening on the port.
func NewWebsocketGateway(port uint16, broker Broker) *WebsocketGateway {
	return &WebsocketGateway{
		port:   port,
		broker: broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The room validates everything; the edge takes any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start runs the HTTP listener until the context is canceled.
func (g *WebsocketGateway) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		g.serveConn(ctx, w, r)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", g.port),
		Handler: mux,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	slog.InfoContext(ctx, "websocket gateway listening", "port", g.port)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (g *WebsocketGateway) serveConn(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(ctx, "upgrading websocket", "remote", r.RemoteAddr, "error", err)
		return
	}

	connID := uuid.New().String()
	ws.SetReadLimit(maxMessageSize)

	// Outbound: room messages for this connection go to the socket.
	// The write mutex covers the pump and the close frame.
	var writeMu sync.Mutex
	unsub, err := g.broker.Subscribe(messaging.OutboundSubject(connID), func(data []byte) {
		writeMu.Lock()
		defer writeMu.Unlock()
		ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Debug("writing to websocket", "conn", connID, "error", err)
		}
	})
	if err != nil {
		slog.WarnContext(ctx, "subscribing connection outbound", "conn", connID, "error", err)
		ws.Close()
		return
	}

	slog.InfoContext(ctx, "websocket connected", "conn", connID, "remote", r.RemoteAddr)

	// Inbound: client frames go to the room verbatim.
	consented := false
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			consented = websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
			break
		}
		if err := g.broker.Publish(messaging.InboundSubject(connID), data); err != nil {
			slog.Warn("publishing inbound frame", "conn", connID, "error", err)
		}
	}

	// The edge synthesizes the leave so the room always hears about the
	// disconnect, consented or not.
	leave, _ := json.Marshal(map[string]any{
		"type": "session:leave",
		"data": map[string]any{"consented": consented},
	})
	if err := g.broker.Publish(messaging.InboundSubject(connID), leave); err != nil {
		slog.Warn("publishing synthesized leave", "conn", connID, "error", err)
	}

	unsub()
	ws.Close()
	slog.InfoContext(ctx, "websocket disconnected", "conn", connID, "consented", consented)
}
