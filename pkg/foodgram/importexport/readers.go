package importexport

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat is returned for files that are neither .csv nor .json.
var ErrUnknownFormat = errors.New("unsupported file format, expected .csv or .json")

// ReadIngredientsCSV reads "name,unit" rows. A leading header row naming
// the columns is ignored.
func ReadIngredientsCSV(r io.Reader) ([]IngredientRecord, error) {
	rows, err := readCSV(r, 2, "name")
	if err != nil {
		return nil, err
	}
	records := make([]IngredientRecord, len(rows))
	for i, row := range rows {
		records[i] = IngredientRecord{Name: row[0], MeasurementUnit: row[1]}
	}
	return records, nil
}

// ReadIngredientsJSON reads [{"name": ..., "measurement_unit": ...}].
func ReadIngredientsJSON(r io.Reader) ([]IngredientRecord, error) {
	var records []IngredientRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode ingredients: %w", err)
	}
	return records, nil
}

// ReadTagsCSV reads "name,color,slug" rows with an optional header.
func ReadTagsCSV(r io.Reader) ([]TagRecord, error) {
	rows, err := readCSV(r, 3, "name")
	if err != nil {
		return nil, err
	}
	records := make([]TagRecord, len(rows))
	for i, row := range rows {
		records[i] = TagRecord{Name: row[0], Color: row[1], Slug: row[2]}
	}
	return records, nil
}

// ReadTagsJSON reads [{"name": ..., "color": ..., "slug": ...}].
func ReadTagsJSON(r io.Reader) ([]TagRecord, error) {
	var records []TagRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return records, nil
}

// LoadIngredients reads an ingredient file, picking the format by extension.
func LoadIngredients(path string) ([]IngredientRecord, error) {
	return load(path, ReadIngredientsCSV, ReadIngredientsJSON)
}

// LoadTags reads a tag file, picking the format by extension.
func LoadTags(path string) ([]TagRecord, error) {
	return load(path, ReadTagsCSV, ReadTagsJSON)
}

func load[T any](path string, fromCSV, fromJSON func(io.Reader) ([]T, error)) ([]T, error) {
	var read func(io.Reader) ([]T, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		read = fromCSV
	case ".json":
		read = fromJSON
	default:
		return nil, ErrUnknownFormat
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return read(f)
}

func readCSV(r io.Reader, columns int, headerFirst string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = columns
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > 0 && strings.EqualFold(strings.TrimSpace(rows[0][0]), headerFirst) {
		rows = rows[1:]
	}
	return rows, nil
}
