package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ais_parser/internal/ais"
)

// PostgresSink maintains a latest-known-state row per vessel, merging
// kinetic fixes and static voyage data onto the same MMSI key.
type PostgresSink struct {
	ctx  context.Context
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool and prepares the vessels schema.
// dsn is a standard postgres:// connection string.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresSink, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresSink{ctx: ctx, pool: pool}
	if err := s.createSchema(); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSink) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vessels (
		mmsi            TEXT PRIMARY KEY,
		name            TEXT NOT NULL DEFAULT '',
		call_sign       TEXT NOT NULL DEFAULT '',
		destination     TEXT NOT NULL DEFAULT '',
		ship_type       TEXT NOT NULL DEFAULT '',
		imo             TEXT NOT NULL DEFAULT '',
		draught         TEXT NOT NULL DEFAULT '',
		eta             TEXT NOT NULL DEFAULT '',
		latitude        DOUBLE PRECISION,
		longitude       DOUBLE PRECISION,
		last_type       BIGINT NOT NULL DEFAULT 0,
		last_seen       TEXT NOT NULL DEFAULT '',
		position_count  BIGINT NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_vessels_name ON vessels(name);
	`
	if _, err := s.pool.Exec(s.ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Store upserts the vessel row for the record's MMSI. Kinetic types update
// the position columns; static types update identity and voyage columns.
// Records without an MMSI (unsupported types) are skipped.
func (s *PostgresSink) Store(rec *ais.PositionReport, _ []byte) error {
	if rec.MMSI == "" {
		return nil
	}

	seen := rec.LandfallTime
	if seen == "" {
		seen = rec.SatelliteAcquisitionTime
	}

	if ais.Kinetic(rec.MessageType) {
		_, err := s.pool.Exec(s.ctx, `
			INSERT INTO vessels (mmsi, latitude, longitude, last_type, last_seen, position_count)
			VALUES ($1, $2, $3, $4, $5, 1)
			ON CONFLICT (mmsi) DO UPDATE SET
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				last_type = EXCLUDED.last_type,
				last_seen = EXCLUDED.last_seen,
				position_count = vessels.position_count + 1
		`, rec.MMSI, rec.Latitude, rec.Longitude, rec.MessageType, seen)
		if err != nil {
			return fmt.Errorf("upsert position: %w", err)
		}
	}

	if rec.MessageType == 5 || rec.MessageType == 19 {
		_, err := s.pool.Exec(s.ctx, `
			INSERT INTO vessels (mmsi, name, call_sign, destination, ship_type, imo, draught, eta, last_type, last_seen)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (mmsi) DO UPDATE SET
				name = EXCLUDED.name,
				call_sign = EXCLUDED.call_sign,
				destination = EXCLUDED.destination,
				ship_type = EXCLUDED.ship_type,
				imo = EXCLUDED.imo,
				draught = EXCLUDED.draught,
				eta = EXCLUDED.eta,
				last_type = EXCLUDED.last_type,
				last_seen = EXCLUDED.last_seen
		`, rec.MMSI, rec.Name, rec.CallSign, rec.Destination, rec.ShipType,
			rec.IMO, rec.Draught, rec.ETA, rec.MessageType, seen)
		if err != nil {
			return fmt.Errorf("upsert statics: %w", err)
		}
	}

	return nil
}

// Close closes the connection pool.
func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
