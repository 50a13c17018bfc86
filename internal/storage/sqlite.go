package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"ais_parser/internal/ais"
)

// SQLiteSink archives every emitted record in a single-file database for
// local inspection. Inserts are grouped into transactions to keep bulk
// runs from fsyncing per record.
type SQLiteSink struct {
	db     *sql.DB
	tx     *sql.Tx
	insert *sql.Stmt
	inTx   int
}

const sqliteTxSize = 5000

// OpenSQLite opens or creates the archive database at path.
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mmsi TEXT NOT NULL,
		message_type INTEGER NOT NULL,
		message_class TEXT NOT NULL,
		landfall_time TEXT,
		latitude REAL,
		longitude REAL,
		record_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_mmsi ON records(mmsi);
	CREATE INDEX IF NOT EXISTS idx_records_type ON records(message_type);
	CREATE INDEX IF NOT EXISTS idx_records_landfall ON records(landfall_time);
	`
	_, err := db.Exec(schema)
	return err
}

// Store appends one record to the archive.
func (s *SQLiteSink) Store(rec *ais.PositionReport, line []byte) error {
	if s.tx == nil {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		stmt, err := tx.Prepare(`
			INSERT INTO records (mmsi, message_type, message_class, landfall_time, latitude, longitude, record_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("prepare: %w", err)
		}
		s.tx, s.insert, s.inTx = tx, stmt, 0
	}

	// The serialized line already ends with the newline; store it without.
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
	}
	_, err := s.insert.Exec(rec.MMSI, rec.MessageType, rec.MessageClass,
		rec.LandfallTime, rec.Latitude, rec.Longitude, string(line[:n]))
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	s.inTx++
	if s.inTx >= sqliteTxSize {
		return s.commit()
	}
	return nil
}

func (s *SQLiteSink) commit() error {
	if s.tx == nil {
		return nil
	}
	_ = s.insert.Close()
	err := s.tx.Commit()
	s.tx, s.insert, s.inTx = nil, nil, 0
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close commits any open transaction and closes the database.
func (s *SQLiteSink) Close() error {
	if err := s.commit(); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}
