// Package importexport bulk-loads and dumps the tag and ingredient catalogs.
package importexport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/logging"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
	"github.com/mikepea/foodgram/pkg/foodgram/validation"
)

// IngredientRecord is one catalog ingredient in an import or export file
type IngredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// TagRecord is one tag in an import or export file
type TagRecord struct {
	Name  string `json:"name" validate:"required,max=30"`
	Color string `json:"color" validate:"required,hexcolor"`
	Slug  string `json:"slug" validate:"required,max=30,slug"`
}

// Result summarises an import run
type Result struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

func (r *Result) fail(row int, format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf("row %d: ", row)+fmt.Sprintf(format, args...))
}

// Importer loads catalog records, creating what is missing
type Importer struct {
	db       *gorm.DB
	validate *validator.Validate
}

// NewImporter creates an importer
func NewImporter(db *gorm.DB) *Importer {
	return &Importer{db: db, validate: validation.New()}
}

// ImportIngredients gets or creates each record by name and unit. Records
// with an empty name or already present are skipped; a name already used
// with another unit is reported as an error.
func (im *Importer) ImportIngredients(ctx context.Context, records []IngredientRecord) (Result, error) {
	res := Result{Errors: []string{}}
	db := im.db.WithContext(ctx)

	for i, rec := range records {
		row := i + 1
		name := strings.TrimSpace(rec.Name)
		unit := strings.TrimSpace(rec.MeasurementUnit)
		if name == "" {
			res.Skipped++
			continue
		}
		if unit == "" {
			res.fail(row, "measurement unit is required for %q", name)
			continue
		}
		if len([]rune(name)) > 200 || len([]rune(unit)) > 50 {
			res.fail(row, "%q is too long", name)
			continue
		}

		var existing models.Ingredient
		err := db.Where("name = ?", name).First(&existing).Error
		switch {
		case err == nil && existing.MeasurementUnit == unit:
			res.Skipped++
		case err == nil:
			res.fail(row, "%q already exists with unit %q", name, existing.MeasurementUnit)
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := db.Create(&models.Ingredient{Name: name, MeasurementUnit: unit}).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					res.Skipped++
					continue
				}
				return res, fmt.Errorf("create ingredient %q: %w", name, err)
			}
			res.Imported++
		default:
			return res, fmt.Errorf("look up ingredient %q: %w", name, err)
		}
	}

	logging.Ctx(ctx).Info().
		Int("imported", res.Imported).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Msg("Ingredients imported")
	return res, nil
}

// ImportTags creates tags that do not exist yet. A record matching an
// existing tag by slug is skipped; invalid records are reported.
func (im *Importer) ImportTags(ctx context.Context, records []TagRecord) (Result, error) {
	res := Result{Errors: []string{}}
	db := im.db.WithContext(ctx)

	for i, rec := range records {
		row := i + 1
		rec.Name = strings.TrimSpace(rec.Name)
		rec.Slug = strings.TrimSpace(rec.Slug)
		rec.Color = strings.ToUpper(strings.TrimSpace(rec.Color))
		if err := im.validate.Struct(rec); err != nil {
			res.fail(row, "%s", validation.Translate(err).Error())
			continue
		}

		var count int64
		if err := db.Model(&models.Tag{}).Where("slug = ?", rec.Slug).Count(&count).Error; err != nil {
			return res, fmt.Errorf("look up tag %q: %w", rec.Slug, err)
		}
		if count > 0 {
			res.Skipped++
			continue
		}

		err := db.Create(&models.Tag{Name: rec.Name, Color: rec.Color, Slug: rec.Slug}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			res.fail(row, "tag %q conflicts with an existing name or color", rec.Name)
			continue
		}
		if err != nil {
			return res, fmt.Errorf("create tag %q: %w", rec.Slug, err)
		}
		res.Imported++
	}

	logging.Ctx(ctx).Info().
		Int("imported", res.Imported).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Msg("Tags imported")
	return res, nil
}
