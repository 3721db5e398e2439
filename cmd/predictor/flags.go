package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/cypherlabdev/match-predictor/internal/config"
	"github.com/cypherlabdev/match-predictor/internal/models"
)

var errConflictingSports = errors.New("cannot specify multiple sports at the same time")

// options are the parsed command line flags
type options struct {
	configPath  string
	envFile     string
	sports      map[models.Sport]bool
	days        int
	daysSet     bool
	upload      string
	purgeRemote string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := pflag.NewFlagSet("match-predictor", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false

	opts := &options{sports: make(map[models.Sport]bool)}
	fs.StringVarP(&opts.configPath, "config", "c", "config/config.json", "path to the JSON config file")
	fs.StringVar(&opts.envFile, "env-file", ".env", "dotenv file exported before the config is loaded")

	football := fs.Bool("football", false, "parse only football leagues")
	basketball := fs.Bool("basketball", false, "parse only basketball leagues")
	hockey := fs.Bool("hockey", false, "parse only hockey leagues")
	cricket := fs.Bool("cricket", false, "parse only cricket leagues")

	fs.IntVar(&opts.days, "days", 0, "number of days to fetch matches for (default from config)")
	fs.StringVar(&opts.upload, "upload", "", "upload the cached JSON files of a sport to the artifact store and exit")
	fs.StringVar(&opts.purgeRemote, "purge-remote", "", "delete every remote artifact of a sport and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts.sports[models.SportFootball] = *football
	opts.sports[models.SportBasketball] = *basketball
	opts.sports[models.SportHockey] = *hockey
	opts.sports[models.SportCricket] = *cricket
	opts.daysSet = fs.Changed("days")

	return opts, nil
}

// selectLeagues resolves the sport filter: at most one sport flag, none
// meaning every configured league
func selectLeagues(cfg *config.Config, opts *options) ([]string, error) {
	var selected []models.Sport
	for _, sport := range models.AllSports() {
		if opts.sports[sport] {
			selected = append(selected, sport)
		}
	}

	switch len(selected) {
	case 0:
		return cfg.AllLeagues(), nil
	case 1:
		return cfg.LeaguesFor(selected[0]), nil
	default:
		return nil, errConflictingSports
	}
}

// windowDays picks --days over the configured default
func windowDays(cfg *config.Config, opts *options) (int, error) {
	days := cfg.DefaultDays
	if opts.daysSet {
		days = opts.days
	}
	if days < 0 {
		return 0, fmt.Errorf("%w: %d", models.ErrInvalidWindow, days)
	}
	return days, nil
}
