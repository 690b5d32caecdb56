package messaging

// ConnPublisher delivers point-to-point messages to named connections
// over their outbound subjects. It satisfies the room's Publisher
// interface.
type ConnPublisher struct {
	server *NatsServer
}

// NewConnPublisher wraps a NatsServer for per-connection delivery.
func NewConnPublisher(server *NatsServer) *ConnPublisher {
	return &ConnPublisher{server: server}
}

func (p *ConnPublisher) Publish(connID string, data []byte) error {
	return p.server.Publish(OutboundSubject(connID), data)
}
