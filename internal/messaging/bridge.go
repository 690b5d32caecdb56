package messaging

import (
	"context"
	"fmt"
)

// InboundHandler consumes one message from a connection's inbound subject.
type InboundHandler func(connID string, data []byte)

// InboundWorker binds a handler to every connection's inbound subject
// once the embedded server is ready, then holds the subscription open
// for the life of the service.
type InboundWorker struct {
	server  *NatsServer
	handler InboundHandler
}

func NewInboundWorker(server *NatsServer, handler InboundHandler) *InboundWorker {
	return &InboundWorker{
		server:  server,
		handler: handler,
	}
}

func (w *InboundWorker) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-w.server.Ready():
	}

	unsub, err := w.server.SubscribeInbound(w.handler)
	if err != nil {
		return fmt.Errorf("subscribing to inbound subjects: %w", err)
	}
	defer unsub()

	<-ctx.Done()
	return nil
}
