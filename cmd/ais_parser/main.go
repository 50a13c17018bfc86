// Command ais_parser converts a raw NMEA/AIS archive into newline-delimited
// JSON, one record per decoded logical message.
//
// Usage:
//
//	ais_parser <INPUT> <OUTPUT> [FLOW_LIMIT] [PARSE_THREADS]
//
// FLOW_LIMIT caps every inter-stage queue (default 500000); PARSE_THREADS
// sizes the parser pool (default: number of CPUs). Optional flags mirror the
// decoded records into analytics sinks alongside the output file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"ais_parser/internal/pipeline"
	"ais_parser/internal/publish"
	"ais_parser/internal/storage"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "ais_parser - selective parsing of a raw AIS stream")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ais_parser <INPUT> <OUTPUT> [FLOW_LIMIT] [PARSE_THREADS]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  INPUT          raw NMEA/AIS input file")
	fmt.Fprintln(w, "  OUTPUT         newline-delimited JSON output file")
	fmt.Fprintln(w, "  FLOW_LIMIT     bounded queue capacity (default 500000)")
	fmt.Fprintln(w, "  PARSE_THREADS  parser pool size (default: number of CPUs)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Flags:")
	pflag.CommandLine.SetOutput(w)
	pflag.PrintDefaults()
}

func main() {
	chAddr := pflag.String("clickhouse", "", "ClickHouse host:port to batch decoded positions into")
	chDatabase := pflag.String("clickhouse-db", "ais", "ClickHouse database name")
	chUser := pflag.String("clickhouse-user", "default", "ClickHouse user")
	chPassword := pflag.String("clickhouse-password", "", "ClickHouse password")
	pgDSN := pflag.String("postgres", "", "PostgreSQL DSN for vessel latest-state upserts")
	sqlitePath := pflag.String("sqlite", "", "SQLite archive file for emitted records")
	natsURL := pflag.String("nats", "", "NATS URL to publish decoded records to")
	quiet := pflag.BoolP("quiet", "q", false, "Only log errors")
	pflag.Usage = func() { usage(os.Stderr) }
	pflag.Parse()

	args := pflag.Args()
	if len(args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	logger := log.New(os.Stderr)
	if *quiet {
		logger.SetLevel(log.ErrorLevel)
	}

	flowLimit := pipeline.DefaultFlowLimit
	if len(args) >= 3 {
		v, err := strconv.Atoi(args[2])
		if err != nil || v < 1 {
			fmt.Fprintf(os.Stderr, "Invalid FLOW_LIMIT %q\n\n", args[2])
			usage(os.Stderr)
			os.Exit(2)
		}
		flowLimit = v
	}

	parseThreads := runtime.NumCPU()
	if len(args) >= 4 {
		v, err := strconv.Atoi(args[3])
		if err != nil || v < 1 {
			fmt.Fprintf(os.Stderr, "Invalid PARSE_THREADS %q\n\n", args[3])
			usage(os.Stderr)
			os.Exit(2)
		}
		parseThreads = v
	}

	in, err := os.Open(args[0])
	if err != nil {
		logger.Error("open input", "err", err)
		os.Exit(1)
	}
	defer in.Close()

	out, err := os.Create(args[1])
	if err != nil {
		logger.Error("create output", "err", err)
		os.Exit(1)
	}

	sinks, err := openSinks(context.Background(), sinkFlags{
		clickhouseAddr:     *chAddr,
		clickhouseDatabase: *chDatabase,
		clickhouseUser:     *chUser,
		clickhousePassword: *chPassword,
		postgresDSN:        *pgDSN,
		sqlitePath:         *sqlitePath,
		natsURL:            *natsURL,
	})
	if err != nil {
		logger.Error("open sink", "err", err)
		os.Exit(1)
	}

	logger.Info("starting", "input", args[0], "output", args[1],
		"flow_limit", flowLimit, "parse_threads", parseThreads, "sinks", len(sinks))

	p := pipeline.New(pipeline.Config{
		FlowLimit:    flowLimit,
		ParseThreads: parseThreads,
		Logger:       logger,
		Sinks:        sinks,
	})
	sn, runErr := p.Run(in, out)

	for _, s := range sinks {
		if err := s.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}
	if err := out.Close(); err != nil && runErr == nil {
		runErr = err
	}

	logger.Info("run complete",
		"lines_read", sn.LinesRead,
		"records_emitted", sn.RecordsEmitted,
		"envelopes_dropped", sn.DroppedEnvelopes,
		"groups_incomplete", sn.IncompleteGroups)

	if runErr != nil {
		logger.Error("run failed", "err", runErr)
		os.Exit(1)
	}
}

type sinkFlags struct {
	clickhouseAddr     string
	clickhouseDatabase string
	clickhouseUser     string
	clickhousePassword string
	postgresDSN        string
	sqlitePath         string
	natsURL            string
}

// openSinks opens every sink the flags select. On any failure the already
// opened sinks are closed again so a half-configured run never starts.
func openSinks(ctx context.Context, f sinkFlags) ([]pipeline.Sink, error) {
	var sinks []pipeline.Sink
	closeAll := func() {
		for _, s := range sinks {
			_ = s.Close()
		}
	}

	if f.clickhouseAddr != "" {
		ch, err := storage.OpenClickHouse(ctx, storage.ClickHouseConfig{
			Addr:     f.clickhouseAddr,
			Database: f.clickhouseDatabase,
			User:     f.clickhouseUser,
			Password: f.clickhousePassword,
		})
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, ch)
	}

	if f.postgresDSN != "" {
		pg, err := storage.OpenPostgres(ctx, f.postgresDSN)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, pg)
	}

	if f.sqlitePath != "" {
		sq, err := storage.OpenSQLite(f.sqlitePath)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, sq)
	}

	if f.natsURL != "" {
		nc, err := publish.New(f.natsURL)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, nc)
	}

	return sinks, nil
}
