// Package publish forwards decoded records to NATS JetStream so live
// consumers can follow a bulk run without tailing the output file.
package publish

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"ais_parser/internal/ais"
)

const (
	// SubjectDecoded carries one serialized record per message.
	SubjectDecoded = "ais.decoded"

	streamName = "AIS_DECODED"
)

// Client publishes decoded records to a JetStream stream.
type Client struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// New connects to NATS and ensures the decoded-records stream exists.
func New(url string) (*Client, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("get JetStream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{SubjectDecoded},
		Storage:  nats.FileStorage,
		MaxAge:   24 * time.Hour,
	})
	if err != nil && !strings.Contains(err.Error(), "stream name already in use") {
		nc.Close()
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &Client{conn: nc, js: js}, nil
}

// Store publishes the serialized record. The trailing newline is dropped;
// subscribers get one JSON object per message.
func (c *Client) Store(_ *ais.PositionReport, line []byte) error {
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
	}
	if _, err := c.js.Publish(SubjectDecoded, line[:n]); err != nil {
		return fmt.Errorf("publish record: %w", err)
	}
	return nil
}

// Close flushes and closes the connection.
func (c *Client) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
