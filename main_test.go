package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/pathcrawl/internal/config"
	"github.com/go-scripts/pathcrawl/internal/types"
	"github.com/go-scripts/pathcrawl/internal/writer"
)

func TestApplyFlags(t *testing.T) {
	cfg := applyFlags(config.Default(), CLIFlags{
		Start:       "Potato",
		MaxDepth:    3,
		Concurrency: 4,
		OutputFile:  "out.json",
		Timeout:     5 * time.Second,
		Substring:   true,
		Debug:       true,
	})

	assert.Equal(t, "Potato", cfg.Start)
	assert.Equal(t, "Adolf_Hitler", cfg.Target)
	assert.Equal(t, 3, cfg.MaxDepth)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "out.json", cfg.OutputFile)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.SubstringMatch)
	assert.False(t, cfg.Render)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestApplyFlagsKeepsConfigWhenUnset(t *testing.T) {
	base := config.Default()
	base.MaxDepth = 9
	base.Render = true

	cfg := applyFlags(base, CLIFlags{})
	assert.Equal(t, base, cfg)
}

func TestExitCode(t *testing.T) {
	found := types.Outcome{State: types.Drained, Matches: []types.Match{{Path: types.Path{"A"}}}}

	assert.Equal(t, exitFound, exitCode(found, nil))
	assert.Equal(t, exitFound, exitCode(found, context.Canceled))
	assert.Equal(t, exitNotFound, exitCode(types.Outcome{State: types.Exhausted}, nil))
	assert.Equal(t, exitError, exitCode(types.Outcome{}, errors.New("boom")))
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, "Tomato", "Adolf_Hitler", types.Outcome{
		Matches: []types.Match{
			{Path: types.Path{"Tomato", "Potato"}, Link: "Adolf_Hitler"},
			{Path: types.Path{"Tomato", "Europe"}, Link: "Adolf_Hitler"},
		},
	})
	assert.Equal(t, "Adolf_Hitler found!\n"+
		"A path to Adolf_Hitler from Tomato:\n"+
		"Tomato -> Potato -> Adolf_Hitler\n"+
		"Tomato -> Europe -> Adolf_Hitler\n", buf.String())

	buf.Reset()
	printOutcome(&buf, "Tomato", "Adolf_Hitler", types.Outcome{State: types.Exhausted})
	assert.Equal(t, "Adolf_Hitler not found.\n", buf.String())
}

func setupWiki(t *testing.T, pages map[string]string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[strings.TrimPrefix(r.URL.Path, "/wiki/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "<html><body>%s</body></html>", body)
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(server *httptest.Server) config.Configuration {
	cfg := config.Default()
	cfg.BaseURL = server.URL + "/wiki/"
	cfg.Concurrency = 4
	cfg.MaxDepth = 4
	return cfg
}

func TestRunFindsPath(t *testing.T) {
	server := setupWiki(t, map[string]string{
		"Tomato": `<a href="/wiki/Potato">Potato</a>`,
		"Potato": `<a href="/wiki/Adolf_Hitler">AH</a>`,
	})
	cfg := testConfig(server)
	cfg.OutputFile = filepath.Join(t.TempDir(), "result.json")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), cfg, false, &stdout, &stderr)

	assert.Equal(t, exitFound, code)
	assert.Contains(t, stdout.String(), "Tomato -> Potato -> Adolf_Hitler")
	assert.Contains(t, stderr.String(), "Search finished")
	assert.Contains(t, stderr.String(), "cached_pages=2")

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var summary writer.Summary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.True(t, summary.Found)
	assert.Equal(t, [][]string{{"Tomato", "Potato"}}, summary.Paths)
}

func TestRunNotFound(t *testing.T) {
	server := setupWiki(t, map[string]string{
		"Tomato": `<a href="/wiki/Potato">Potato</a> <a href="/wiki/Missing">Missing</a>`,
		"Potato": `<a href="/wiki/Tomato">Tomato</a>`,
	})

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), testConfig(server), false, &stdout, &stderr)

	assert.Equal(t, exitNotFound, code)
	assert.Equal(t, "Adolf_Hitler not found.\n", stdout.String())
	// the missing page is logged as a dead end, not a fatal error
	assert.Contains(t, stderr.String(), "Missing")
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MaxDepth = 0
	cfg.Concurrency = 0

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), cfg, false, &stdout, &stderr)

	assert.Equal(t, exitError, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "max_depth")
	assert.Contains(t, stderr.String(), "concurrency")
}

func TestRunNormalizesInput(t *testing.T) {
	server := setupWiki(t, map[string]string{
		"Tomato": `<a href="/wiki/Adolf_Hitler">AH</a>`,
	})
	cfg := testConfig(server)
	cfg.Start = " Tomato "
	cfg.Target = "Adolf Hitler"

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), cfg, false, &stdout, &stderr)

	assert.Equal(t, exitFound, code)
	assert.Contains(t, stdout.String(), "A path to Adolf_Hitler from Tomato:")
}
