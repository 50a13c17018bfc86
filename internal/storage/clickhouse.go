// Package storage provides optional analytics sinks for decoded position
// reports: a ClickHouse columnar store, a PostgreSQL latest-state table and
// a SQLite archive. Each sink receives records from the writer stage only,
// so none of them needs internal locking.
package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"ais_parser/internal/ais"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Addr     string
	Database string
	User     string
	Password string
}

// ClickHouseSink batches decoded records into a ClickHouse positions table.
type ClickHouseSink struct {
	ctx       context.Context
	conn      driver.Conn
	batchSize int
	pending   []*ais.PositionReport
}

const chBatchSize = 10000

// OpenClickHouse opens a connection and prepares the positions schema.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseSink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	s := &ClickHouseSink{ctx: ctx, conn: conn, batchSize: chBatchSize}
	if err := s.createSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *ClickHouseSink) createSchema() error {
	query := `CREATE TABLE IF NOT EXISTS positions (
		mmsi            LowCardinality(String),
		message_type    UInt8,
		message_class   LowCardinality(String),
		channel         LowCardinality(String),
		source          LowCardinality(String),
		landfall_time   UInt64,
		sat_time        UInt64,
		latitude        Float64,
		longitude       Float64,
		course          LowCardinality(String),
		speed           LowCardinality(String),
		nav_status      LowCardinality(String),
		name            String,
		call_sign       String,
		destination     String,
		ship_type       LowCardinality(String),
		raw_payload     String,
		created_at      DateTime64(3) DEFAULT now64(3)
	)
	ENGINE = MergeTree()
	PARTITION BY intDiv(landfall_time, 86400)
	ORDER BY (mmsi, landfall_time)
	SETTINGS index_granularity = 8192`

	if err := s.conn.Exec(s.ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Store queues one record; full batches flush synchronously.
func (s *ClickHouseSink) Store(rec *ais.PositionReport, _ []byte) error {
	s.pending = append(s.pending, rec)
	if len(s.pending) >= s.batchSize {
		return s.flush()
	}
	return nil
}

func (s *ClickHouseSink) flush() error {
	if len(s.pending) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(s.ctx, `
		INSERT INTO positions (mmsi, message_type, message_class, channel, source,
			landfall_time, sat_time, latitude, longitude, course, speed, nav_status,
			name, call_sign, destination, ship_type, raw_payload)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, r := range s.pending {
		err = batch.Append(
			r.MMSI, uint8(r.MessageType), r.MessageClass, r.Channel, r.Source,
			epoch(r.LandfallTime), epoch(r.SatelliteAcquisitionTime),
			r.Latitude, r.Longitude,
			r.CourseOverGround, r.SpeedOverGround, r.NavigationStatus,
			r.Name, r.CallSign, r.Destination, r.ShipType, r.RawPayload,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	s.pending = s.pending[:0]
	return nil
}

// Close flushes any partial batch and closes the connection.
func (s *ClickHouseSink) Close() error {
	if err := s.flush(); err != nil {
		_ = s.conn.Close()
		return err
	}
	return s.conn.Close()
}

// epoch parses a decimal seconds string, zero when absent or malformed.
func epoch(s string) uint64 {
	v, _ := strconv.ParseUint(s, 10, 64)
	return v
}
