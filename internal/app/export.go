package app

import (
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"award-seat-alerts/internal/history"
)

// Export renders cycle history as CSV and/or PNG.
func (a *App) Export(opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if !a.Config.History.Enabled {
		return errors.New("history disabled; cannot export")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Scheduler.Interval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	journal := a.newJournal()
	records, err := journal.ReadBetween(from, to)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.Logger.Info().Msg("no cycle history found for export window")
		return nil
	}

	downsampled := downsampleRecords(records, opts.MaxPoints)
	a.Logger.Info().Int("total", len(records)).Int("exported", len(downsampled)).Msg("exporting cycle history")

	if opts.CSVPath != "" {
		if err := writeHistoryCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeHistoryPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleRecords(records []history.CycleRecord, max int) []history.CycleRecord {
	if max <= 0 || len(records) <= max {
		return records
	}

	result := make([]history.CycleRecord, 0, max)
	step := float64(len(records)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(records) {
			idx = len(records) - 1
		}
		result = append(result, records[idx])
	}
	return result
}

func writeHistoryCSV(path string, records []history.CycleRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"time", "cycle_id", "outcome", "pages", "fetched", "candidates", "alerted", "lowest_mileage"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		lowest := ""
		if rec.LowestMileage != nil {
			lowest = strconv.Itoa(*rec.LowestMileage)
		}
		row := []string{
			rec.Time.Format(time.RFC3339),
			rec.CycleID,
			rec.Outcome,
			strconv.Itoa(rec.Pages),
			strconv.Itoa(rec.Fetched),
			strconv.Itoa(rec.Candidates),
			strconv.Itoa(rec.Alerted),
			lowest,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeHistoryPNG(path string, records []history.CycleRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(records))
	mileage := make([]float64, len(records))
	alerted := make([]float64, len(records))

	lastMileage := 0.0
	for i, rec := range records {
		x[i] = rec.Time
		if rec.LowestMileage != nil {
			lastMileage = float64(*rec.LowestMileage)
		}
		mileage[i] = lastMileage
		alerted[i] = float64(rec.Alerted)
	}

	countFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Lowest mileage cost",
			ValueFormatter: countFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Alerts per cycle",
			ValueFormatter: countFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Lowest mileage",
				XValues: x,
				YValues: mileage,
			},
			chart.TimeSeries{
				Name:    "Alerts",
				XValues: x,
				YValues: alerted,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
