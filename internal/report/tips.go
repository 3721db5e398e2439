package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/match-predictor/internal/fsutil"
	"github.com/cypherlabdev/match-predictor/internal/models"
)

// TipPolicy decides which matches get a tip file
type TipPolicy string

const (
	TipPolicyAll       TipPolicy = "all"
	TipPolicyConfident TipPolicy = "confident"
)

// ParseTipPolicy validates a configured policy name
func ParseTipPolicy(name string) (TipPolicy, error) {
	switch p := TipPolicy(strings.ToLower(strings.TrimSpace(name))); p {
	case TipPolicyAll, TipPolicyConfident:
		return p, nil
	default:
		return "", fmt.Errorf("unknown tip policy %q", name)
	}
}

// TipWriter fills a per-sport text template for ranked matches and writes one
// read-only file per match
type TipWriter struct {
	dir             string
	templates       map[models.Sport]string
	defaultTemplate string
	policy          TipPolicy
	logger          zerolog.Logger
}

// TipWriterConfig holds tip file configuration
type TipWriterConfig struct {
	Dir             string                  // output folder, e.g. "tips"
	Templates       map[models.Sport]string // template path per sport
	DefaultTemplate string                  // used for sports without a template
	Policy          TipPolicy
}

// NewTipWriter creates a new tip file writer
func NewTipWriter(config TipWriterConfig, logger zerolog.Logger) *TipWriter {
	policy := config.Policy
	if policy == "" {
		policy = TipPolicyAll
	}

	return &TipWriter{
		dir:             config.Dir,
		templates:       config.Templates,
		defaultTemplate: config.DefaultTemplate,
		policy:          policy,
		logger:          logger.With().Str("component", "tip_writer").Logger(),
	}
}

// Name implements service.Sink
func (w *TipWriter) Name() string {
	return "tip_files"
}

// Emit writes a tip file for every selected match of the predictability view.
// A failing match is logged and the rest are still written.
func (w *TipWriter) Emit(ctx context.Context, report *models.Report) error {
	loaded := make(map[string]string)
	written, failed := 0, 0

	for _, m := range report.ByPredictability {
		if err := ctx.Err(); err != nil {
			return err
		}
		if w.policy == TipPolicyConfident && m.Verdict != models.VerdictConfident {
			continue
		}

		path, err := w.writeTip(m.Match, loaded)
		if err != nil {
			failed++
			w.logger.Error().
				Err(err).
				Str("team1", m.Team1).
				Str("team2", m.Team2).
				Msg("failed to create tip file")
			continue
		}

		written++
		w.logger.Info().Str("path", path).Msg("tip file created")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tip files failed", failed, written+failed)
	}
	return nil
}

func (w *TipWriter) writeTip(m models.Match, loaded map[string]string) (string, error) {
	templatePath := w.templateFor(m.League)

	tpl, ok := loaded[templatePath]
	if !ok {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			return "", fmt.Errorf("failed to read template: %w", err)
		}
		tpl = string(data)
		loaded[templatePath] = tpl
	}

	path := filepath.Join(w.dir, TipFilename(m))
	if err := fsutil.WriteFileAtomic(path, []byte(FillTemplate(tpl, m)), 0o444); err != nil {
		return "", err
	}
	return path, nil
}

func (w *TipWriter) templateFor(league string) string {
	if sport, err := models.SportOf(league); err == nil {
		if path, ok := w.templates[sport]; ok && path != "" {
			return path
		}
	}
	return w.defaultTemplate
}

// FillTemplate substitutes {team1}, {team2}, {sport_title} and {commence_time}.
// Doubled braces are literal braces.
func FillTemplate(tpl string, m models.Match) string {
	r := strings.NewReplacer(
		"{{", "{",
		"}}", "}",
		"{team1}", m.Team1,
		"{team2}", m.Team2,
		"{sport_title}", m.League,
		"{commence_time}", m.CommenceTime.UTC().Format(time.RFC3339),
	)
	return strings.TrimSpace(r.Replace(tpl))
}

var unsafeFilenameChars = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_", `"`, "_", "<", "_", ">", "_", "|", "_",
)

// TipFilename returns tip_<team1>_vs_<team2>.txt with path-unsafe characters replaced
func TipFilename(m models.Match) string {
	return fmt.Sprintf("tip_%s_vs_%s.txt", unsafeFilenameChars.Replace(m.Team1), unsafeFilenameChars.Replace(m.Team2))
}
