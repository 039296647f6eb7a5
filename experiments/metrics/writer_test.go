package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"game2048/game"
	"game2048/searcher"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func sampleMoves() []MoveRecord {
	return []MoveRecord{
		{Game: 1, MoveMetric: MoveMetric{
			Turn: 1, Move: game.Left, Score: 4, MaxTile: 4, EmptyCells: 13,
			SearchMetric: searcher.SearchMetric{Policy: searcher.PolicyExpectimax, Goroutines: 2, Depth: 2, Duration: time.Millisecond, Evaluations: 120, ChanceNodes: 9},
		}},
		{Game: 1, MoveMetric: MoveMetric{
			Turn: 2, Move: game.Down, Score: 12, MaxTile: 8, EmptyCells: 12,
			SearchMetric: searcher.SearchMetric{Policy: searcher.PolicyMonteCarlo, Goroutines: 1, Depth: 50, Rollouts: 300},
		}},
	}
}

func TestNewWriter(t *testing.T) {
	t.Run("creating a timestamped directory", func(t *testing.T) {
		dir := t.TempDir()

		w, err := NewWriter(dir, "depth")

		require.NoError(t, err)
		require.DirExists(t, w.Dir())
		require.Equal(t, filepath.Join(dir, "depth"), filepath.Dir(w.Dir()), "Should nest the run under the experiment name")
	})
}

func TestWriteCSV(t *testing.T) {
	t.Run("agent configs", func(t *testing.T) {
		w, err := NewWriter(t.TempDir(), "test")
		require.NoError(t, err)
		cfg := searcher.DefaultConfig()
		cfg.Weights = []float64{-0.1, 40, -1, 1}

		require.NoError(t, w.WriteAgentConfigs([]AgentConfig{{ID: 3, Config: cfg}}))

		rows := readCSV(t, filepath.Join(w.Dir(), "agent_configs.csv"))
		require.Len(t, rows, 2, "Should write a header and one row")
		require.Equal(t, "id", rows[0][0])
		require.Equal(t, "3", rows[1][0])
		require.Equal(t, searcher.PolicyExpectimax, rows[1][1])
		require.Equal(t, "-0.1 40 -1 1", rows[1][3])
		require.Equal(t, "", rows[1][4], "Default exponents should be left blank")
	})

	t.Run("game records", func(t *testing.T) {
		w, err := NewWriter(t.TempDir(), "test")
		require.NoError(t, err)
		start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		record := GameRecord{ID: 1, Agent: 2, GameMetric: GameMetric{
			Seed: 17, StartTime: start, EndTime: start.Add(time.Second), Duration: time.Second,
			TotalMoves: 250, Score: 3000, MaxTile: 256, GameOver: true,
		}}

		require.NoError(t, w.WriteGameRecords([]GameRecord{record}))

		rows := readCSV(t, filepath.Join(w.Dir(), "game_records.csv"))
		require.Len(t, rows, 2)
		require.Equal(t, []string{"1", "2", "17", "2024-01-02T03:04:05Z", "2024-01-02T03:04:06Z", "1s", "250", "3000", "256", "false", "true"}, rows[1])
	})

	t.Run("move records", func(t *testing.T) {
		w, err := NewWriter(t.TempDir(), "test")
		require.NoError(t, err)

		require.NoError(t, w.WriteMoveRecords(sampleMoves()))

		rows := readCSV(t, filepath.Join(w.Dir(), "move_records.csv"))
		require.Len(t, rows, 3)
		require.Equal(t, "left", rows[1][2])
		require.Equal(t, "down", rows[2][2])
		require.Equal(t, "300", rows[2][12])
	})
}

func TestWriteMoveParquet(t *testing.T) {
	t.Run("round trip of move rows", func(t *testing.T) {
		w, err := NewWriter(t.TempDir(), "test")
		require.NoError(t, err)
		records := sampleMoves()

		require.NoError(t, w.WriteMoveParquet(records))

		path := filepath.Join(w.Dir(), "move_records.parquet")
		require.NoFileExists(t, path+".tmp", "Temporary file should be renamed")
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		stat, err := f.Stat()
		require.NoError(t, err)
		pf, err := parquet.OpenFile(f, stat.Size())
		require.NoError(t, err)

		reader := parquet.NewGenericReader[MoveRow](pf)
		defer reader.Close()
		require.EqualValues(t, len(records), reader.NumRows())

		rows := make([]MoveRow, len(records))
		n, _ := reader.Read(rows)
		require.Equal(t, len(records), n)
		require.Equal(t, NewMoveRow(records[0]), rows[0])
		require.Equal(t, "montecarlo", rows[1].Policy)
	})
}
