package storage

import (
	"path/filepath"
	"testing"

	"ais_parser/internal/ais"
)

func TestSQLiteSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	sink, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}

	rec := &ais.PositionReport{
		MMSI:         "230017340",
		MessageType:  1,
		MessageClass: ais.ClassSingleline,
		LandfallTime: "1569890647",
		Latitude:     60.104978,
		Longitude:    25.018318,
	}
	line, err := rec.AppendJSON(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := sink.Store(rec, line); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopen and read back.
	sink, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Error(err)
		}
	}()

	var mmsi, recordJSON string
	var msgType uint64
	err = sink.db.QueryRow(`SELECT mmsi, message_type, record_json FROM records`).
		Scan(&mmsi, &msgType, &recordJSON)
	if err != nil {
		t.Fatal(err)
	}
	if mmsi != "230017340" || msgType != 1 {
		t.Errorf("row = (%q, %d), want (230017340, 1)", mmsi, msgType)
	}
	if recordJSON == "" || recordJSON[len(recordJSON)-1] == '\n' {
		t.Errorf("record_json must be the JSON line without trailing newline: %q", recordJSON)
	}
}
