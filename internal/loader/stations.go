package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Errors reported while reading the station table.
var (
	ErrNoCodeColumn       = errors.New("no station code column found")
	ErrNoCoordinateColumn = errors.New("no longitude/latitude columns found")
)

// Column header candidates, checked in order. Station tables from Chinese
// hydrology yearbooks carry Chinese headers; exported tables use English.
var (
	codeColumns = []string{"测站编码", "测站代码", "站码", "站号", "code", "station_id"}
	lonColumns  = []string{"经度", "lon", "longitude"}
	latColumns  = []string{"纬度", "lat", "latitude"}
	areaColumns = []string{"集水区面积", "面积", "area"}
)

// StationRecord is one raw CSV row. The area value is kept in source units;
// NormalizeAreas converts the batch to m² afterwards.
type StationRecord struct {
	Code string
	Lon  float64
	Lat  float64

	// Area is the reference drainage area in source units, 0 when the row
	// has none.
	Area float64
}

// Stations reads a station CSV file. The code column is mandatory and kept
// as text; coordinate columns are mandatory; the area column is optional.
// Rows with an unparseable coordinate are skipped rather than failing the
// batch.
func Stations(path string) ([]StationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(strings.TrimSpace(h), "\uFEFF")
		colIdx[strings.ToLower(h)] = i
	}
	codeIdx, ok := findColumn(colIdx, codeColumns)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNoCodeColumn)
	}
	lonIdx, lonOK := findColumn(colIdx, lonColumns)
	latIdx, latOK := findColumn(colIdx, latColumns)
	if !lonOK || !latOK {
		return nil, fmt.Errorf("%s: %w", path, ErrNoCoordinateColumn)
	}
	areaIdx, hasArea := findColumn(colIdx, areaColumns)

	var records []StationRecord
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		code := strings.TrimSpace(field(row, codeIdx))
		if code == "" {
			continue
		}
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(field(row, lonIdx)), 64)
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(field(row, latIdx)), 64)
		if lonErr != nil || latErr != nil {
			continue
		}
		rec := StationRecord{Code: code, Lon: lon, Lat: lat}
		if hasArea {
			if a, err := strconv.ParseFloat(strings.TrimSpace(field(row, areaIdx)), 64); err == nil && a > 0 {
				rec.Area = a
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func findColumn(colIdx map[string]int, candidates []string) (int, bool) {
	for _, c := range candidates {
		if i, ok := colIdx[strings.ToLower(c)]; ok {
			return i, true
		}
	}
	return 0, false
}

func field(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
