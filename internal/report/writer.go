package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

const (
	boxWidth   = 60
	labelWidth = 20
	valueWidth = boxWidth - 2 - labelWidth

	kickoffLayout = "02-01-2006 15:04"
)

// Writer appends the boxed text report of every run to a file
type Writer struct {
	path     string
	echo     io.Writer
	location *time.Location
	logger   zerolog.Logger
}

// WriterConfig holds report file configuration
type WriterConfig struct {
	Path     string         // e.g., "output.txt"
	Echo     io.Writer      // optional copy, e.g. os.Stdout
	Location *time.Location // kick-off times are shown in this zone
}

// NewWriter creates a new report writer
func NewWriter(config WriterConfig, logger zerolog.Logger) *Writer {
	loc := config.Location
	if loc == nil {
		loc = time.Local
	}

	return &Writer{
		path:     config.Path,
		echo:     config.Echo,
		location: loc,
		logger:   logger.With().Str("component", "report_writer").Logger(),
	}
}

// Name implements service.Sink
func (w *Writer) Name() string {
	return "report_file"
}

// Emit renders the report and appends it to the report file
func (w *Writer) Emit(ctx context.Context, report *models.Report) error {
	var buf bytes.Buffer
	if err := Render(&buf, report, w.location); err != nil {
		return err
	}

	if w.echo != nil {
		if _, err := w.echo.Write(buf.Bytes()); err != nil {
			w.logger.Warn().Err(err).Msg("failed to echo report")
		}
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open report file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	w.logger.Info().
		Str("path", w.path).
		Int("matches", len(report.ByPredictability)).
		Msg("report written")

	return nil
}

// Render writes both views of the report as 60-column boxes
func Render(out io.Writer, report *models.Report, loc *time.Location) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Matches in the next %d days from leagues: %s\n", report.WindowDays, strings.Join(report.Leagues, ", "))
	b.WriteString("Sorted by confidence level:\n")
	for _, m := range report.ByPredictability {
		writeBox(&b, m, loc)
	}

	b.WriteString("\nSorted by time of play:\n")
	for _, m := range report.ByKickoff {
		writeBox(&b, m, loc)
	}

	if _, err := io.WriteString(out, b.String()); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func writeBox(b *strings.Builder, m models.RankedMatch, loc *time.Location) {
	border := "+" + strings.Repeat("-", boxWidth-2) + "+\n"

	b.WriteString(border)
	writeRow(b, "League:", m.League)
	writeRow(b, "Teams:", m.Team1+" vs "+m.Team2)
	writeRow(b, "Kick-off:", m.CommenceTime.In(loc).Format(kickoffLayout))
	writeRow(b, "Predictability:", formatScore(m.Predictability))
	writeRow(b, "Verdict:", m.Verdict.Label())
	b.WriteString(border)
	b.WriteString("\n")
}

// writeRow left-aligns the label and right-aligns the value, truncating
// values that do not fit with "..."
func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "|%-*s%*s|\n", labelWidth, label, valueWidth, truncate(value, valueWidth))
}

func truncate(value string, width int) string {
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	return string(runes[:width-3]) + "..."
}

// Unscored matches rank as +infinity
func formatScore(score *decimal.Decimal) string {
	if score == nil {
		return "inf"
	}
	return score.StringFixed(2)
}
