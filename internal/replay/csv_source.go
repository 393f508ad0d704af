package replay

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"sweep-signal-lab/internal/domain"
)

// LoadCSV reads base bars from a CSV file. Expected columns:
// timestamp_ms,open,high,low,close,volume. A header row is detected and
// skipped. The symbol is stamped onto every bar.
func LoadCSV(path, symbol string) ([]*domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return ReadCSV(f, symbol)
}

// ReadCSV reads bars from an open CSV stream. See LoadCSV for the format.
func ReadCSV(r io.Reader, symbol string) ([]*domain.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6

	var bars []*domain.Bar
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		line++

		// Header row: first field not numeric.
		if line == 1 {
			if _, err := strconv.ParseInt(record[0], 10, 64); err != nil {
				continue
			}
		}

		bar, err := parseBarRecord(record, symbol)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseBarRecord(record []string, symbol string) (*domain.Bar, error) {
	ts, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp: %w", err)
	}

	fields := make([]float64, 5)
	for i, name := range []string{"open", "high", "low", "close", "volume"} {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		fields[i] = v
	}

	return &domain.Bar{
		Symbol:      symbol,
		TimestampMs: ts,
		Open:        fields[0],
		High:        fields[1],
		Low:         fields[2],
		Close:       fields[3],
		Volume:      fields[4],
	}, nil
}
