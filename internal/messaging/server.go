// Package messaging embeds the NATS server that carries all traffic
// between the client edge and the rooms. Each logical connection owns a
// pair of subjects: conn.<id>.in toward the room and conn.<id>.out back.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// Subject layout for per-connection traffic.
const (
	connSubjectPrefix = "conn."
	inboundSuffix     = ".in"
	outboundSuffix    = ".out"
	inboundWildcard   = "conn.*.in"
)

// InboundSubject returns the client-to-room subject for a connection.
func InboundSubject(connID string) string {
	return connSubjectPrefix + connID + inboundSuffix
}

// OutboundSubject returns the room-to-client subject for a connection.
func OutboundSubject(connID string) string {
	return connSubjectPrefix + connID + outboundSuffix
}

// connFromInbound extracts the connection id from an inbound subject.
func connFromInbound(subject string) (string, bool) {
	if len(subject) <= len(connSubjectPrefix)+len(inboundSuffix) ||
		!strings.HasPrefix(subject, connSubjectPrefix) || !strings.HasSuffix(subject, inboundSuffix) {
		return "", false
	}
	id := subject[len(connSubjectPrefix) : len(subject)-len(inboundSuffix)]
	if id == "" || strings.Contains(id, ".") {
		return "", false
	}
	return id, true
}

type NatsServer struct {
	ns    *server.Server
	conn  *nats.Conn
	ready chan struct{}

	startupTimeout time.Duration
	host           string
	port           int
}

func NewNatsServer(opts ...NatsServerOpt) (*NatsServer, error) {
	s := &NatsServer{
		ready:          make(chan struct{}),
		startupTimeout: 10 * time.Second,
		host:           "127.0.0.1",
	}

	for _, opt := range opts {
		opt(s)
	}

	ns, err := server.NewServer(&server.Options{
		Host:   s.host,
		Port:   s.port,
		NoSigs: true, // Let the application handle signals
	})

	s.ns = ns

	if err != nil {
		return nil, err
	}

	return s, nil
}

func (n *NatsServer) Start(ctx context.Context) error {

	n.ns.Start()

	if !n.ns.ReadyForConnections(n.startupTimeout) {
		return fmt.Errorf("nats server not ready for connections")
	}

	// Create internal client connection
	conn, err := nats.Connect(n.clientURL())
	if err != nil {
		return fmt.Errorf("creating nats client connection: %w", err)
	}
	n.conn = conn
	close(n.ready)

	slog.InfoContext(ctx, "nats server listening", "addr", n.ns.Addr())

	<-ctx.Done()
	n.conn.Close()
	n.ns.Shutdown()
	n.ns.WaitForShutdown()

	return nil
}

// Ready is closed once the server accepts connections and the internal
// client is connected. Subscribe and Publish fail before that point.
func (n *NatsServer) Ready() <-chan struct{} {
	return n.ready
}

// Subscribe creates a subscription on the given subject.
// The handler is called for each message received.
// Returns an unsubscribe function to remove the subscription.
func (n *NatsServer) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	if n.conn == nil {
		return nil, fmt.Errorf("nats server not started")
	}
	sub, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { sub.Unsubscribe() }, nil
}

// SubscribeInbound subscribes to every connection's inbound subject,
// handing the handler the connection id extracted from the subject.
func (n *NatsServer) SubscribeInbound(handler func(connID string, data []byte)) (func(), error) {
	if n.conn == nil {
		return nil, fmt.Errorf("nats server not started")
	}
	sub, err := n.conn.Subscribe(inboundWildcard, func(msg *nats.Msg) {
		connID, ok := connFromInbound(msg.Subject)
		if !ok {
			slog.Warn("dropping message on malformed inbound subject", "subject", msg.Subject)
			return
		}
		handler(connID, msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { sub.Unsubscribe() }, nil
}

// Publish sends a message to the given subject
func (n *NatsServer) Publish(subject string, data []byte) error {
	if n.conn == nil {
		return fmt.Errorf("nats server not started")
	}
	return n.conn.Publish(subject, data)
}

func (n *NatsServer) clientURL() string {
	return fmt.Sprintf("nats://%s:%d", n.host, n.port)
}
