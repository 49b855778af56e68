package db

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ukydev/safe-route/internal/models"
)

// Column names of the accident sample export.
const (
	colID       = "id"
	colLat      = "start_lat"
	colLng      = "start_lng"
	colSeverity = "severity"
)

// CSVStore reads accident samples from a CSV file with Start_Lat, Start_Lng
// and Severity columns. Other columns are ignored.
type CSVStore struct {
	Path string
}

func (s *CSVStore) LoadAccidents(ctx context.Context) ([]models.Accident, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open accident csv: %w", err)
	}
	defer f.Close()
	return ReadAccidentsCSV(f)
}

// ReadAccidentsCSV parses accident samples. Header matching is case-insensitive.
func ReadAccidentsCSV(r io.Reader) ([]models.Accident, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("accident csv is empty")
		}
		return nil, fmt.Errorf("read accident csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colLat, colLng, colSeverity} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("accident csv missing column %q", required)
		}
	}

	var accidents []models.Accident
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("accident csv line %d: %w", line, err)
		}
		a, err := parseAccident(record, cols)
		if err != nil {
			return nil, fmt.Errorf("accident csv line %d: %w", line, err)
		}
		accidents = append(accidents, a)
	}
	return accidents, nil
}

func parseAccident(record []string, cols map[string]int) (models.Accident, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	lat, err := strconv.ParseFloat(field(colLat), 64)
	if err != nil {
		return models.Accident{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(field(colLng), 64)
	if err != nil {
		return models.Accident{}, fmt.Errorf("invalid longitude: %w", err)
	}
	severity, err := strconv.ParseFloat(field(colSeverity), 64)
	if err != nil {
		return models.Accident{}, fmt.Errorf("invalid severity: %w", err)
	}
	return models.Accident{ID: field(colID), Lat: lat, Lon: lng, Severity: int(severity)}, nil
}
