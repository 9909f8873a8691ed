package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/config"
	"github.com/mikepea/foodgram/pkg/foodgram/database"
	"github.com/mikepea/foodgram/pkg/foodgram/importexport"
	"github.com/mikepea/foodgram/pkg/foodgram/logging"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
)

func main() {
	registry := NewCommandRegistry()
	registerCommands(registry, openDB)

	if err := registry.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openDB connects with the server configuration and migrates the schema.
func openDB() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console", Output: os.Stderr})

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func registerCommands(r *CommandRegistry, connect func() (*gorm.DB, error)) {
	ingredients := &Command{
		Name:        "ingredients",
		Description: "Load ingredients from a CSV (name,unit) or JSON file",
		Usage:       "foodgram-loaddata ingredients [-path data/ingredients.csv]",
		Examples: []string{
			"foodgram-loaddata ingredients",
			"foodgram-loaddata ingredients -path data/ingredients.json",
		},
	}
	ingredients.Run = func(args []string) error {
		fs := ingredients.NewFlagSet()
		path := fs.String("path", "data/ingredients.csv", "Path to the ingredients file")
		if err := fs.Parse(args); err != nil {
			return err
		}

		records, err := importexport.LoadIngredients(*path)
		if err != nil {
			return fmt.Errorf("read %s: %w", *path, err)
		}
		db, err := connect()
		if err != nil {
			return err
		}
		res, err := importexport.NewImporter(db).ImportIngredients(context.Background(), records)
		if err != nil {
			return err
		}
		printResult(os.Stdout, "ingredients", res)
		return nil
	}
	r.Register(ingredients)

	tags := &Command{
		Name:        "tags",
		Description: "Load tags from a CSV (name,color,slug) or JSON file",
		Usage:       "foodgram-loaddata tags [-path data/tags.json]",
		Examples: []string{
			"foodgram-loaddata tags -path data/tags.json",
		},
	}
	tags.Run = func(args []string) error {
		fs := tags.NewFlagSet()
		path := fs.String("path", "data/tags.json", "Path to the tags file")
		if err := fs.Parse(args); err != nil {
			return err
		}

		records, err := importexport.LoadTags(*path)
		if err != nil {
			return fmt.Errorf("read %s: %w", *path, err)
		}
		db, err := connect()
		if err != nil {
			return err
		}
		res, err := importexport.NewImporter(db).ImportTags(context.Background(), records)
		if err != nil {
			return err
		}
		printResult(os.Stdout, "tags", res)
		return nil
	}
	r.Register(tags)
}

func printResult(w io.Writer, kind string, res importexport.Result) {
	fmt.Fprintf(w, "%s: %d imported, %d skipped, %d errors\n", kind, res.Imported, res.Skipped, len(res.Errors))
	for _, msg := range res.Errors {
		fmt.Fprintf(w, "  %s\n", msg)
	}
}
