package main

import (
	"bytes"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/match-predictor/internal/config"
	"github.com/cypherlabdev/match-predictor/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Football:    []string{"soccer_epl"},
		Basketball:  []string{"basketball_nba"},
		Hockey:      []string{"icehockey_nhl"},
		Cricket:     []string{"cricket_ipl"},
		DefaultDays: 2,
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	opts, err := parseFlags(nil, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "config/config.json", opts.configPath)
	assert.Equal(t, ".env", opts.envFile)
	assert.False(t, opts.daysSet)
	assert.Empty(t, opts.upload)
}

func TestParseFlags_Help(t *testing.T) {
	var out bytes.Buffer

	_, err := parseFlags([]string{"--help"}, &out)

	assert.ErrorIs(t, err, pflag.ErrHelp)
	assert.Contains(t, out.String(), "--football")
}

func TestParseFlags_UnknownFlag(t *testing.T) {
	_, err := parseFlags([]string{"--tennis"}, &bytes.Buffer{})

	assert.Error(t, err)
}

func TestSelectLeagues(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{"no filter", nil, []string{"soccer_epl", "basketball_nba", "icehockey_nhl", "cricket_ipl"}, false},
		{"football", []string{"--football"}, []string{"soccer_epl"}, false},
		{"hockey", []string{"--hockey"}, []string{"icehockey_nhl"}, false},
		{"cricket", []string{"--cricket"}, []string{"cricket_ipl"}, false},
		{"conflict", []string{"--football", "--basketball"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args, &bytes.Buffer{})
			require.NoError(t, err)

			leagues, err := selectLeagues(testConfig(), opts)
			if tt.wantErr {
				assert.ErrorIs(t, err, errConflictingSports)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, leagues)
		})
	}
}

func TestWindowDays(t *testing.T) {
	cfg := testConfig()

	opts, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)
	days, err := windowDays(cfg, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, days)

	opts, err = parseFlags([]string{"--days", "0"}, &bytes.Buffer{})
	require.NoError(t, err)
	days, err = windowDays(cfg, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, days)

	opts, err = parseFlags([]string{"--days=-3"}, &bytes.Buffer{})
	require.NoError(t, err)
	_, err = windowDays(cfg, opts)
	assert.ErrorIs(t, err, models.ErrInvalidWindow)
}
