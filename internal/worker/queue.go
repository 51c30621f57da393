package worker

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	nc "github.com/nats-io/nats.go"
)

// Queue is the producer side of the task queue. Enqueue is fire-and-
// forget: failures and backpressure degrade to a warning, never an error
// on the user-facing request.
type Queue struct {
	conn      *nc.Conn
	highWater int
}

// Connect dials NATS with reconnect handling. clientID names the
// connection in monitoring output.
func Connect(url, clientID string, highWater int) (*Queue, error) {
	opts := []nc.Option{
		nc.Name(clientID),
		nc.ReconnectWait(2 * time.Second),
		nc.MaxReconnects(-1),
		nc.DisconnectErrHandler(func(conn *nc.Conn, err error) {
			if err != nil {
				log.Printf("[NATS] %s disconnected: %v", clientID, err)
			}
		}),
		nc.ReconnectHandler(func(conn *nc.Conn) {
			log.Printf("[NATS] %s reconnected to %s", clientID, conn.ConnectedUrl())
		}),
	}

	conn, err := nc.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &Queue{conn: conn, highWater: highWater}, nil
}

// StartEmbeddedServer runs an in-process NATS server for single-node
// deployments without external infrastructure. Returns the client URL.
func StartEmbeddedServer() (string, *server.Server, error) {
	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1, // random free port
		NoSigs:    true,
		NoLog:     true,
		JetStream: false,
	}

	srv, err := server.NewServer(opts)
	if err != nil {
		return "", nil, fmt.Errorf("create embedded NATS server: %w", err)
	}

	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		return "", nil, fmt.Errorf("embedded NATS server did not become ready")
	}

	return srv.ClientURL(), srv, nil
}

// Enqueue publishes a task. When the connection's pending buffer exceeds
// the high-water mark the task is dropped best-effort with a warning.
func (q *Queue) Enqueue(subject string, task any) error {
	if q == nil || q.conn == nil {
		log.Printf("[Worker] WARNING: no queue connection, dropping %s", subject)
		return nil
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task for %s: %w", subject, err)
	}

	if q.highWater > 0 {
		if pending, err := q.conn.Buffered(); err == nil && pending > q.highWater {
			log.Printf("[Worker] WARNING: queue depth %d over high water %d, dropping %s", pending, q.highWater, subject)
			return nil
		}
	}

	if err := q.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// TryEnqueue is Enqueue for fire-and-forget call sites: it only warns.
func (q *Queue) TryEnqueue(subject string, task any) {
	if err := q.Enqueue(subject, task); err != nil {
		log.Printf("[Worker] WARNING: enqueue %s failed (best-effort): %v", subject, err)
	}
}

func (q *Queue) Conn() *nc.Conn { return q.conn }

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}
