package ingest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pthm-cable/forage/events"
)

// Section headers of the text report.
const (
	foragingHeader   = "ANALISI EVENTI FORAGING:"
	efficiencyHeader = "ANALISI EFFICIENZA DETTAGLIATA:"
)

var (
	agentLine  = regexp.MustCompile(`formica (\d+):`)
	pickupLine = regexp.MustCompile(`pickup: (\d+)`)
	dropLine   = regexp.MustCompile(`drop: (\d+)`)
)

// ReadText decodes the per-agent pickup/drop listing:
//
//	formica 3:
//	  pickup: 1200000000
//	  drop: 4500000000
//
// When the foraging section header is present only that section is read.
// The listing carries no coordinates, so events are marked NoPosition and
// trips built from them have zero distance.
func ReadText(r io.Reader) ([]events.Event, Stats, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, Stats{}, fmt.Errorf("reading text log: %w", err)
	}
	lines = foragingSection(lines)

	var (
		out   []events.Event
		st    Stats
		agent = events.NoAgent
	)
	for i, line := range lines {
		if m := agentLine.FindStringSubmatch(line); m != nil {
			id, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, st, fmt.Errorf("line %d: %w: agent id %q", i+1, events.ErrIntegrity, m[1])
			}
			agent = id
			continue
		}

		cat := events.CategoryPickup
		m := pickupLine.FindStringSubmatch(line)
		if m == nil {
			cat = events.CategoryDrop
			m = dropLine.FindStringSubmatch(line)
		}
		if m == nil {
			continue
		}

		st.Rows++
		ts, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, st, fmt.Errorf("line %d: %w: malformed timestamp %q", i+1, events.ErrIntegrity, m[1])
		}
		if agent == events.NoAgent {
			st.Unattributed++
		}
		out = append(out, events.Event{
			Timestamp:  ts,
			Category:   cat,
			AgentID:    agent,
			NoPosition: true,
		})
		st.Events++
	}
	return out, st, nil
}

// foragingSection narrows lines to the foraging listing when the report has
// section headers.
func foragingSection(lines []string) []string {
	start := -1
	for i, l := range lines {
		if strings.Contains(l, foragingHeader) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return lines
	}
	for i := start; i < len(lines); i++ {
		if strings.Contains(lines[i], efficiencyHeader) {
			return lines[start:i]
		}
	}
	return lines[start:]
}
