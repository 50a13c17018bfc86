// Package pipeline wires the reader, parser pool, reassembly owner and
// writer into one bounded-queue dataflow. Every inter-stage channel has
// capacity FlowLimit, so a slow consumer blocks its producers and peak
// memory stays proportional to FlowLimit.
package pipeline

import (
	"bufio"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"ais_parser/internal/ais"
	"ais_parser/internal/assembly"
	"ais_parser/internal/nmea"
	"ais_parser/internal/stats"
)

// DefaultFlowLimit bounds each inter-stage queue unless overridden.
const DefaultFlowLimit = 500000

const progressEvery = 100000

// Sink receives each emitted record in addition to the primary output.
// Store is called from the writer stage only, one record at a time.
type Sink interface {
	Store(rec *ais.PositionReport, line []byte) error
	Close() error
}

// Config controls a pipeline run.
type Config struct {
	FlowLimit    int
	ParseThreads int
	Logger       *log.Logger
	Sinks        []Sink
}

func (c Config) withDefaults() Config {
	if c.FlowLimit <= 0 {
		c.FlowLimit = DefaultFlowLimit
	}
	if c.ParseThreads <= 0 {
		c.ParseThreads = runtime.NumCPU()
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
	return c
}

// Pipeline converts raw NMEA sentences to newline-delimited JSON records.
type Pipeline struct {
	cfg Config
	st  *stats.Stats
}

func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg.withDefaults(), st: stats.New()}
}

// Run reads sentences from in until EOF and writes one JSON line per
// decoded logical message to out. Output order is not input order. The
// returned snapshot carries the run counters; the error is non-nil only
// for input read or output/sink write failures.
func (p *Pipeline) Run(in io.Reader, out io.Writer) (stats.Snapshot, error) {
	raw := make(chan string, p.cfg.FlowLimit)
	multi := make(chan *nmea.Sentence, p.cfg.FlowLimit)
	records := make(chan *ais.PositionReport, p.cfg.FlowLimit)

	var readErr error
	go func() {
		defer close(raw)
		readErr = p.read(in, raw)
	}()

	var producers sync.WaitGroup
	producers.Add(p.cfg.ParseThreads)
	for i := 0; i < p.cfg.ParseThreads; i++ {
		go func() {
			defer producers.Done()
			p.parse(raw, multi, records)
		}()
	}

	go func() {
		producers.Wait()
		close(multi)
	}()

	var assembler sync.WaitGroup
	assembler.Add(1)
	go func() {
		defer assembler.Done()
		p.assemble(multi, records)
	}()

	go func() {
		assembler.Wait()
		close(records)
	}()

	writeErr := p.write(records, out)

	if readErr != nil {
		return p.st.Snapshot(), readErr
	}
	return p.st.Snapshot(), writeErr
}

// read scans the input line by line and queues candidate sentences. Lines
// with no VDM body are never parseable and are dropped here, before they
// cost a queue slot.
func (p *Pipeline) read(in io.Reader, raw chan<- string) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	var n uint64
	for scanner.Scan() {
		p.st.AddLineRead()
		n++
		if n%progressEvery == 0 {
			p.cfg.Logger.Info("reading", "lines", thousands(n))
		}
		line := scanner.Text()
		if !strings.Contains(line, "VDM") {
			p.st.AddDroppedEnvelope()
			continue
		}
		raw <- line
	}
	return scanner.Err()
}

// parse tokenizes raw lines. Singletons decode in place and go straight to
// the output queue; fragments go to the reassembly owner.
func (p *Pipeline) parse(raw <-chan string, multi chan<- *nmea.Sentence, records chan<- *ais.PositionReport) {
	for line := range raw {
		s, err := nmea.Parse(line)
		if err != nil {
			p.st.AddDroppedEnvelope()
			continue
		}
		if s.Singleton() {
			rep := singletonReport(s)
			ais.Decode(rep)
			records <- rep
			continue
		}
		if s.Group == "" {
			// A fragment with no group tag can never be paired.
			p.st.AddDroppedEnvelope()
			continue
		}
		multi <- s
	}
}

// assemble owns the fragment cache. Single goroutine, no locking.
func (p *Pipeline) assemble(multi <-chan *nmea.Sentence, records chan<- *ais.PositionReport) {
	cache := assembly.New()
	for s := range multi {
		if rep := cache.Ingest(s); rep != nil {
			ais.Decode(rep)
			records <- rep
		}
	}
	p.st.AddIncompleteGroups(uint64(cache.Len()))
}

// write drains the output queue to the primary writer and any sinks. On the
// first write failure the queue is still drained so upstream stages can
// finish, but nothing more is written.
func (p *Pipeline) write(records <-chan *ais.PositionReport, out io.Writer) error {
	bw := bufio.NewWriterSize(out, 1024*1024)
	var firstErr error
	var buf []byte
	var n uint64

	for rep := range records {
		if firstErr != nil {
			continue
		}
		line, err := rep.AppendJSON(buf[:0])
		if err != nil {
			p.st.AddDroppedEnvelope()
			continue
		}
		buf = line
		if _, err := bw.Write(line); err != nil {
			firstErr = err
			continue
		}
		for _, sink := range p.cfg.Sinks {
			if err := sink.Store(rep, line); err != nil {
				firstErr = err
				break
			}
		}
		if firstErr != nil {
			continue
		}
		p.st.AddRecordEmitted()
		n++
		if n%progressEvery == 0 {
			p.cfg.Logger.Info("writing", "records", thousands(n))
		}
	}

	if err := bw.Flush(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// thousands renders n with comma separators for progress logs.
func thousands(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func singletonReport(s *nmea.Sentence) *ais.PositionReport {
	return &ais.PositionReport{
		Sentence:                 s.Raw,
		LandfallTime:             s.LandfallTime,
		SatelliteAcquisitionTime: s.SatTime,
		Source:                   s.Source,
		Channel:                  s.Channel,
		RawPayload:               s.Payload,
		MessageClass:             ais.ClassSingleline,
	}
}
