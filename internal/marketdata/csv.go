// Package marketdata loads bar series from local CSV files, the offline
// counterpart to websocket ingestion.
package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"confluence-backtest-lab/internal/domain"
)

// csv column layout
const (
	colTimestampMs = iota
	colOpen
	colHigh
	colLow
	colClose
	colVolume
	numColumns
)

// LoadBarsCSV reads a bar series from a CSV file with the header
// timestamp_ms,open,high,low,close,volume. The series must be strictly
// ordered in time.
func LoadBarsCSV(path, symbol, timeframe string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer f.Close()

	bars, err := ReadBars(f, symbol, timeframe)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return bars, nil
}

// ReadBars parses CSV bar rows from r.
func ReadBars(r io.Reader, symbol, timeframe string) ([]domain.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = numColumns

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header[colTimestampMs] != "timestamp_ms" {
		return nil, fmt.Errorf("unexpected header, first column is %q", header[colTimestampMs])
	}

	var bars []domain.Bar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		bar, err := parseBar(record, symbol, timeframe)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	if err := domain.ValidateBars(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

func parseBar(record []string, symbol, timeframe string) (domain.Bar, error) {
	ts, err := strconv.ParseInt(record[colTimestampMs], 10, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parse timestamp_ms %q: %w", record[colTimestampMs], err)
	}

	fields := make([]float64, numColumns)
	for i := colOpen; i < numColumns; i++ {
		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("parse column %d %q: %w", i, record[i], err)
		}
		fields[i] = v
	}

	return domain.Bar{
		Symbol:      symbol,
		Timeframe:   timeframe,
		TimestampMs: ts,
		Open:        fields[colOpen],
		High:        fields[colHigh],
		Low:         fields[colLow],
		Close:       fields[colClose],
		Volume:      fields[colVolume],
	}, nil
}
