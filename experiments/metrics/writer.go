package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

type GameRecord struct {
	ID    int
	Agent int // AgentConfig.ID
	GameMetric
}

type MoveRecord struct {
	Game int // GameRecord.ID
	MoveMetric
}

// MoveRow is the parquet layout of a MoveRecord.
type MoveRow struct {
	Game        int32  `parquet:"game"`
	Turn        int32  `parquet:"turn"`
	Move        string `parquet:"move,dict"`
	Score       int64  `parquet:"score"`
	MaxTile     int64  `parquet:"max_tile"`
	EmptyCells  int32  `parquet:"empty_cells"`
	Policy      string `parquet:"policy,dict"`
	Goroutines  int32  `parquet:"goroutines"`
	Depth       int32  `parquet:"depth"`
	DurationNs  int64  `parquet:"duration_ns"`
	Evaluations int64  `parquet:"evaluations"`
	ChanceNodes int64  `parquet:"chance_nodes"`
	Rollouts    int64  `parquet:"rollouts"`
}

func NewMoveRow(r MoveRecord) MoveRow {
	return MoveRow{
		Game:        int32(r.Game),
		Turn:        int32(r.Turn),
		Move:        r.Move.String(),
		Score:       int64(r.Score),
		MaxTile:     int64(r.MaxTile),
		EmptyCells:  int32(r.EmptyCells),
		Policy:      r.Policy,
		Goroutines:  int32(r.Goroutines),
		Depth:       int32(r.Depth),
		DurationNs:  r.Duration.Nanoseconds(),
		Evaluations: r.Evaluations,
		ChanceNodes: r.ChanceNodes,
		Rollouts:    r.Rollouts,
	}
}

type Writer struct {
	baseDir string
}

// NewWriter stores files under dir/name/<timestamp>.
func NewWriter(dir, name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(dir, name, timestamp)
	err := os.MkdirAll(baseDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) writeCSV(file string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, file)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", file, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", file, err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", file, err)
	}
	return nil
}

// formatFloats joins values with spaces; nil stands for the default heuristic.
func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func (w *Writer) WriteAgentConfigs(configs []AgentConfig) error {
	header := []string{"id", "policy", "depth", "weights", "exponents", "max_depth", "trials", "aggregation", "goroutines", "seed"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			config.Policy,
			strconv.Itoa(config.Depth),
			formatFloats(config.Weights),
			formatFloats(config.Exponents),
			strconv.Itoa(config.MaxDepth),
			strconv.Itoa(config.Trials),
			config.Aggregation,
			strconv.Itoa(config.Goroutines),
			strconv.FormatUint(config.Seed, 10),
		})
	}
	return w.writeCSV("agent_configs.csv", header, rows)
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"id", "agent", "seed", "start_time", "end_time", "duration", "total_moves", "score", "max_tile", "won", "game_over"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			strconv.Itoa(record.Agent),
			strconv.FormatUint(record.Seed, 10),
			record.StartTime.Format(time.RFC3339),
			record.EndTime.Format(time.RFC3339),
			record.Duration.String(),
			strconv.Itoa(record.TotalMoves),
			strconv.Itoa(record.Score),
			strconv.FormatUint(uint64(record.MaxTile), 10),
			strconv.FormatBool(record.Won),
			strconv.FormatBool(record.GameOver),
		})
	}
	return w.writeCSV("game_records.csv", header, rows)
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	header := []string{"game", "turn", "move", "score", "max_tile", "empty_cells", "policy", "goroutines", "depth", "duration", "evaluations", "chance_nodes", "rollouts"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Game),
			strconv.Itoa(record.Turn),
			record.Move.String(),
			strconv.Itoa(record.Score),
			strconv.FormatUint(uint64(record.MaxTile), 10),
			strconv.Itoa(record.EmptyCells),
			record.Policy,
			strconv.Itoa(record.Goroutines),
			strconv.Itoa(record.Depth),
			record.Duration.String(),
			strconv.FormatInt(record.Evaluations, 10),
			strconv.FormatInt(record.ChanceNodes, 10),
			strconv.FormatInt(record.Rollouts, 10),
		})
	}
	return w.writeCSV("move_records.csv", header, rows)
}

// WriteMoveParquet writes move_records.parquet through a temporary file so
// readers never observe a partial file.
func (w *Writer) WriteMoveParquet(records []MoveRecord) error {
	rows := make([]MoveRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, NewMoveRow(record))
	}

	outPath := filepath.Join(w.baseDir, "move_records.parquet")
	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "move_record_v1"),
	); err != nil {
		return fmt.Errorf("failed to write move records parquet: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("failed to rename move records parquet: %w", err)
	}
	return nil
}
