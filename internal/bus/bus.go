// Package bus provides an in-process publish/subscribe fabric backed by
// an embedded NATS server, grounded on the ODSapper-CLIAIMONITOR example's
// internal/nats package (EmbeddedServer wrapping server.Options,
// Client wrapping a core *nats.Conn). Conductor only needs an in-process
// topic, not a network listener, so DontListen+InProcessServer replaces
// that example's host:port binding.
package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// Bus wraps an embedded, in-process-only NATS server and a single core
// connection used for both publishing and subscribing.
type Bus struct {
	server *server.Server
	conn   *nats.Conn
}

// New starts the embedded server and connects to it without opening any
// network listener.
func New() (*Bus, error) {
	ns, err := server.NewServer(&server.Options{
		DontListen: true,
		NoLog:      true,
		NoSigs:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("bus: create embedded nats server: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		return nil, fmt.Errorf("bus: embedded nats server not ready for connections")
	}

	conn, err := nats.Connect("", nats.InProcessServer(ns))
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("bus: connect to embedded nats server: %w", err)
	}

	return &Bus{server: ns, conn: conn}, nil
}

// Publish sends a raw payload to subject.
func (b *Bus) Publish(subject string, data []byte) error {
	return b.conn.Publish(subject, data)
}

// PublishJSON marshals v and publishes it to subject.
func (b *Bus) PublishJSON(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("bus: marshal payload for %s: %w", subject, err)
	}
	return b.Publish(subject, data)
}

// Subscribe registers an asynchronous handler for subject.
func (b *Bus) Subscribe(subject string, handler func(subject string, data []byte)) (*nats.Subscription, error) {
	return b.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
}

// Close tears down the client connection and the embedded server.
func (b *Bus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
	if b.server != nil {
		b.server.Shutdown()
		b.server.WaitForShutdown()
	}
}
