package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ZidanAK22/RateYourGroupMates/internal/app"
	"github.com/ZidanAK22/RateYourGroupMates/internal/recap"
	"github.com/ZidanAK22/RateYourGroupMates/internal/store"
)

// GSheetExporter periodically dumps the reduced recap table into
// spreadsheets, one scheduled job per configured sheet.
type GSheetExporter struct {
	config    *app.Config
	store     store.RatingStore
	scheduler *gocron.Scheduler
}

func NewGSheetExporter(config *app.Config, store store.RatingStore) (*GSheetExporter, error) {
	ctx := context.Background()
	scheduler := gocron.NewScheduler(time.UTC)

	exporter := &GSheetExporter{
		config:    config,
		store:     store,
		scheduler: scheduler,
	}

	for _, cfg := range config.Export.Sheets {
		svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets service: %w", err)
		}

		cfg := cfg
		_, err = scheduler.Cron(cfg.Schedule).Do(func() {
			if err := exporter.Export(svc, &cfg); err != nil {
				logger.Error.Printf("Export to %s failed: %v", cfg.SpreadsheetID, err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to schedule export: %w", err)
		}
	}

	scheduler.StartAsync()
	return exporter, nil
}

func (e *GSheetExporter) Export(svc *sheets.Service, cfg *app.SheetExportConfig) error {
	rows, err := recap.Build(e.store)
	if err != nil {
		return fmt.Errorf("failed to build recap: %w", err)
	}

	values := [][]interface{}{
		{"group_id", "group_name", "ratee_id", "ratee_name", "rater_id", "rater_name", "score", "comment", "created_at"},
	}
	for _, row := range rows {
		values = append(values, []interface{}{
			row.GroupID,
			row.GroupName,
			row.RateeID,
			row.RateeName,
			row.RaterID,
			row.RaterName,
			row.Score,
			row.Comment,
			e.formatTimestamp(row.CreatedAt),
		})
	}

	rangeRef := fmt.Sprintf("%s!A1", cfg.SheetName)
	_, err = svc.Spreadsheets.Values.Update(cfg.SpreadsheetID, rangeRef, &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("failed to write sheet: %w", err)
	}

	logger.Info.Printf("Exported %d recap rows to %s/%s", len(rows), cfg.SpreadsheetID, cfg.SheetName)
	return nil
}

func (e *GSheetExporter) formatTimestamp(ts int64) string {
	format := e.config.Display.TimestampFormat
	if format == "" {
		format = "2006-01-02 15:04:05"
	}
	return time.Unix(ts, 0).UTC().Format(format)
}

func (e *GSheetExporter) Stop() {
	e.scheduler.Stop()
}
