package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/forage/events"
)

const sampleCSV = `timestamp_ns,event_type,description,x,y,data
100,EXPERIMENT_START,double bridge, short branch,,,
200,ANT_POSITION,Ant 3,10.5,20.25,FORAGING
300,ANT_DECISION,Ant 3 - FOLLOW_FOOD_PHEROMONE,11,21,pheromone_intensity=0.4200;using_pheromones=true;behavior=FORAGING
400,FOOD_PICKUP,Ant 3 picked up food,12,22,
500,FOOD_DROP,Ant 3 dropped food,400,300,
600,FOOD_DISCOVERED,Food found,,,
700,ANT_POSITION,Queen,1,1,
`

func TestReadCSV(t *testing.T) {
	evs, st, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 7, st.Rows)
	assert.Equal(t, 1, st.Skipped)
	assert.Equal(t, 6, st.Events)
	assert.Equal(t, 2, st.Unattributed)
	require.Len(t, evs, 6)

	pos := evs[0]
	assert.Equal(t, events.CategoryPosition, pos.Category)
	assert.Equal(t, int64(200), pos.Timestamp)
	assert.Equal(t, 3, pos.AgentID)
	assert.Equal(t, events.Point{X: 10.5, Y: 20.25}, pos.Pos())

	dec := evs[1]
	assert.Equal(t, events.ActionFollowFood, dec.Action)
	d := events.ParseDecision(dec.Payload)
	assert.True(t, d.UsingPheromones)
	assert.InDelta(t, 0.42, d.PheromoneIntensity, 1e-12)

	assert.Equal(t, events.CategoryPickup, evs[2].Category)
	assert.Equal(t, events.CategoryDrop, evs[3].Category)

	found := evs[4]
	assert.Equal(t, events.CategoryDiscovered, found.Category)
	assert.False(t, found.HasPosition())
	assert.Equal(t, events.NoAgent, found.AgentID)

	assert.Equal(t, events.NoAgent, evs[5].AgentID)
}

func TestReadCSVIntegrity(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"malformed timestamp", "12ab,ANT_POSITION,Ant 1,1,1,"},
		{"malformed coordinate", "100,ANT_POSITION,Ant 1,x,1,"},
		{"pickup without coordinates", "100,FOOD_PICKUP,Ant 1 picked up food,,,"},
		{"negative timestamp", "-5,FOOD_DROP,Ant 1 dropped food,1,1,"},
		{"non-finite coordinate", "100,ANT_POSITION,Ant 1,NaN,1,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := "timestamp_ns,event_type,description,x,y,data\n" + tt.row + "\n"
			_, _, err := ReadCSV(strings.NewReader(in))
			require.Error(t, err)
			assert.ErrorIs(t, err, events.ErrIntegrity)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestReadCSVEmpty(t *testing.T) {
	evs, st, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, evs)
	assert.Zero(t, st.Rows)

	evs, _, err = ReadCSV(strings.NewReader("timestamp_ns,event_type,description,x,y,data\n"))
	require.NoError(t, err)
	assert.Empty(t, evs)
}

const sampleText = `REPORT
ANALISI EVENTI FORAGING:
formica 1:
  pickup: 1000000000
  drop: 3000000000
  pickup: 4000000000
formica 2:
  pickup: 2000000000
  drop: 2500000000
ANALISI EFFICIENZA DETTAGLIATA:
formica 1:
  pickup: 9000000000
`

func TestReadText(t *testing.T) {
	evs, st, err := ReadText(strings.NewReader(sampleText))
	require.NoError(t, err)
	require.Len(t, evs, 5)
	assert.Equal(t, 5, st.Events)

	assert.Equal(t, 1, evs[0].AgentID)
	assert.Equal(t, events.CategoryPickup, evs[0].Category)
	assert.Equal(t, int64(1_000_000_000), evs[0].Timestamp)
	assert.Equal(t, events.CategoryDrop, evs[1].Category)
	assert.False(t, evs[1].HasPosition())
	assert.Equal(t, 2, evs[4].AgentID)
	assert.Equal(t, int64(2_500_000_000), evs[4].Timestamp)
}

func TestReadTextWithoutHeaders(t *testing.T) {
	evs, st, err := ReadText(strings.NewReader("pickup: 5\nformica 7:\npickup: 10\ndrop: 20\n"))
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal(t, 1, st.Unattributed)
	assert.Equal(t, events.NoAgent, evs[0].AgentID)
	assert.Equal(t, 7, evs[2].AgentID)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	evs, _, err := ReadFile(path, FormatCSV)
	require.NoError(t, err)
	assert.Len(t, evs, 6)

	_, _, err = ReadFile(path, "xml")
	assert.Error(t, err)

	_, _, err = ReadFile(filepath.Join(dir, "missing.csv"), FormatCSV)
	assert.Error(t, err)
}
