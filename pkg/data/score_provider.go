package data

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/ducminhle1904/crypto-signal-trader/pkg/types"
)

// feedSnapshot is the JSON document an external score feed drops per
// symbol. Feeds rewrite the whole file; this provider only reads it.
type feedSnapshot struct {
	Symbol string                 `json:"symbol"`
	Price  float64                `json:"price"`
	Stats  types.MarketStats      `json:"stats"`
	Scores []types.ComponentScore `json:"scores"`
}

// FileScoreProvider reads score snapshots written by the external
// technical/ML/whale/sentiment collaborators. One JSON file per symbol
// under the feed directory.
type FileScoreProvider struct {
	dir    string
	maxAge time.Duration
}

// NewFileScoreProvider creates a provider over dir. Snapshots older
// than maxAge are treated as missing so the engine sees stale feeds as
// absent data, not as genuine signals.
func NewFileScoreProvider(dir string, maxAge time.Duration) *FileScoreProvider {
	return &FileScoreProvider{dir: dir, maxAge: maxAge}
}

func (p *FileScoreProvider) load(symbol string) (*feedSnapshot, error) {
	path := filepath.Join(p.dir, symbol+".json")
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("score feed for %s: %w", symbol, err)
	}
	if p.maxAge > 0 && time.Since(info.ModTime()) > p.maxAge {
		return nil, fmt.Errorf("score feed for %s stale since %s", symbol, info.ModTime().Format(time.RFC3339))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("score feed for %s: %w", symbol, err)
	}
	var snap feedSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("score feed for %s: %w", symbol, err)
	}
	return &snap, nil
}

func (p *FileScoreProvider) Scores(symbol string) ([]types.ComponentScore, error) {
	snap, err := p.load(symbol)
	if err != nil {
		return nil, err
	}
	return snap.Scores, nil
}

func (p *FileScoreProvider) Price(symbol string) (float64, error) {
	snap, err := p.load(symbol)
	if err != nil {
		return 0, err
	}
	return snap.Price, nil
}

func (p *FileScoreProvider) Stats(symbol string) (types.MarketStats, error) {
	snap, err := p.load(symbol)
	if err != nil {
		return types.MarketStats{}, err
	}
	return snap.Stats, nil
}

// ScoreSample groups the component scores observed at one timestamp of
// a historical series.
type ScoreSample struct {
	Timestamp time.Time
	Scores    []types.ComponentScore
}

// LoadScoreSeries loads a historical score series from a CSV with
// columns "timestamp,kind,value,confidence,accumulation,engagement".
// Rows sharing a timestamp are grouped into one sample; samples come
// back sorted by time.
func LoadScoreSeries(path string, dateFormat string) ([]ScoreSample, error) {
	if dateFormat == "" {
		dateFormat = DefaultCSVFormat.DateFormat
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open score series: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return nil, err
	}

	grouped := make(map[time.Time][]types.ComponentScore)
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading score CSV at line %d: %v", lineNum, err)
		}
		lineNum++
		if len(record) < 4 {
			return nil, fmt.Errorf("score CSV line %d: need at least 4 columns", lineNum)
		}

		ts, err := time.Parse(dateFormat, record[0])
		if err != nil {
			return nil, fmt.Errorf("score CSV line %d: bad timestamp %q: %v", lineNum, record[0], err)
		}
		value, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("score CSV line %d: bad value %q", lineNum, record[2])
		}
		confidence, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("score CSV line %d: bad confidence %q", lineNum, record[3])
		}

		score := types.ComponentScore{
			Kind:       types.ScoreKind(record[1]),
			Value:      value,
			Confidence: confidence,
			Timestamp:  ts,
		}
		if len(record) > 4 && record[4] != "" {
			score.Accumulation, _ = strconv.ParseFloat(record[4], 64)
		}
		if len(record) > 5 && record[5] != "" {
			score.Engagement, _ = strconv.ParseFloat(record[5], 64)
		}
		grouped[ts] = append(grouped[ts], score)
	}

	samples := make([]ScoreSample, 0, len(grouped))
	for ts, scores := range grouped {
		samples = append(samples, ScoreSample{Timestamp: ts, Scores: scores})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Timestamp.Before(samples[j].Timestamp) })
	return samples, nil
}
