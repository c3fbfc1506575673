package nats

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	StreamName     = "EVENTS"
	subjectPrefix  = "events."
	streamSubjects = "events.>"
)

// Connect opens a connection that keeps retrying in the background when the
// server is not yet reachable.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("metrocare-be"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

func Subject(eventType string) string {
	return subjectPrefix + eventType
}
