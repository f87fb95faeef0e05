// Package ingest decodes simulation logs into typed events.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/forage/events"
)

// Supported log formats.
const (
	FormatCSV  = "csv"
	FormatText = "text"
)

var (
	agentPattern  = regexp.MustCompile(`Ant (\d+)`)
	actionPattern = regexp.MustCompile(`- (\w+)`)
)

// record is one row of the simulation CSV log. Numeric columns are kept as
// strings so that empty cells can be told apart from zeros.
type record struct {
	Timestamp   string `csv:"timestamp_ns"`
	EventType   string `csv:"event_type"`
	Description string `csv:"description"`
	X           string `csv:"x"`
	Y           string `csv:"y"`
	Data        string `csv:"data"`
}

// Stats counts what happened to the rows of a log.
type Stats struct {
	Rows         int // data rows read
	Events       int // rows turned into events
	Skipped      int // rows of categories the analysis does not use
	Unattributed int // events without an agent id
}

// LogValue implements slog.LogValuer for structured logging.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("rows", s.Rows),
		slog.Int("events", s.Events),
		slog.Int("skipped", s.Skipped),
		slog.Int("unattributed", s.Unattributed),
	)
}

// ReadFile decodes the log at path in the given format.
func ReadFile(path, format string) ([]events.Event, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("opening log: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatCSV, "":
		return ReadCSV(f)
	case FormatText:
		return ReadText(f)
	default:
		return nil, Stats{}, fmt.Errorf("unknown log format %q", format)
	}
}

// ReadCSV decodes a CSV log with the header
// timestamp_ns,event_type,description,x,y,data.
// Rows of other categories are skipped. Malformed timestamps or coordinates
// and missing coordinates on position, pickup or drop rows fail with
// events.ErrIntegrity.
func ReadCSV(r io.Reader) ([]events.Event, Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // descriptions of unused rows may contain commas
	cr.LazyQuotes = true

	var (
		out     []events.Event
		st      Stats
		decErr  error
		lineNum = 1 // header
	)
	err := gocsv.UnmarshalDecoderToCallback(gocsv.NewSimpleDecoderFromCSVReader(cr), func(rec record) {
		lineNum++
		if decErr != nil {
			return
		}
		st.Rows++
		e, ok, err := rec.event()
		if err != nil {
			decErr = fmt.Errorf("line %d: %w", lineNum, err)
			return
		}
		if !ok {
			st.Skipped++
			return
		}
		if !e.HasAgent() {
			st.Unattributed++
		}
		st.Events++
		out = append(out, e)
	})
	if errors.Is(err, io.EOF) {
		// No header: an empty log
		return nil, st, nil
	}
	if err != nil {
		return nil, st, fmt.Errorf("decoding csv log: %w", err)
	}
	if decErr != nil {
		return nil, st, decErr
	}
	return out, st, nil
}

// event converts a row. Reports false for categories outside the analysis.
func (rec record) event() (events.Event, bool, error) {
	cat, ok := events.ParseCategory(strings.TrimSpace(rec.EventType))
	if !ok {
		return events.Event{}, false, nil
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(rec.Timestamp), 10, 64)
	if err != nil {
		return events.Event{}, false, fmt.Errorf("%w: malformed timestamp %q", events.ErrIntegrity, rec.Timestamp)
	}

	e := events.Event{
		Timestamp: ts,
		Category:  cat,
		AgentID:   parseAgent(rec.Description),
		Payload:   rec.Data,
	}
	if cat == events.CategoryDecision {
		if m := actionPattern.FindStringSubmatch(rec.Description); m != nil {
			e.Action = m[1]
		}
	}

	xs, ys := strings.TrimSpace(rec.X), strings.TrimSpace(rec.Y)
	if xs == "" || ys == "" {
		switch cat {
		case events.CategoryPosition, events.CategoryPickup, events.CategoryDrop:
			return events.Event{}, false, fmt.Errorf("%w: %s without coordinates", events.ErrIntegrity, cat)
		}
		e.NoPosition = true
		return e, true, nil
	}
	if e.X, err = strconv.ParseFloat(xs, 64); err != nil {
		return events.Event{}, false, fmt.Errorf("%w: malformed x %q", events.ErrIntegrity, rec.X)
	}
	if e.Y, err = strconv.ParseFloat(ys, 64); err != nil {
		return events.Event{}, false, fmt.Errorf("%w: malformed y %q", events.ErrIntegrity, rec.Y)
	}
	if err := e.Validate(); err != nil {
		return events.Event{}, false, err
	}
	return e, true, nil
}

// parseAgent extracts the agent id from a description such as "Ant 12 dropped food".
func parseAgent(desc string) int {
	m := agentPattern.FindStringSubmatch(desc)
	if m == nil {
		return events.NoAgent
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return events.NoAgent
	}
	return id
}
