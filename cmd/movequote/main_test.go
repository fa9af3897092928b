package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/movequote/internal/config"
	"github.com/vbonduro/movequote/internal/vision"
	claudevision "github.com/vbonduro/movequote/internal/vision/claude"
	ollamavision "github.com/vbonduro/movequote/internal/vision/ollama"
)

const sampleInventory = `{
  "clientName": "Jane Doe",
  "movers": "2",
  "hoursLow": 4,
  "hoursHigh": 5,
  "vehicles": 1,
  "mileage": 10,
  "rooms": [
    {"id": 1, "name": "Den", "width": 10, "length": 8, "override": {"boxes": 5}}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestMainVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, execute([]string{"movequote", "--version"}, &out, &out))
	assert.Contains(t, out.String(), Version)
}

func TestMainUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, execute([]string{"movequote", "unknown"}, &out, &out))
}

func TestEstimateSummary(t *testing.T) {
	color.NoColor = true
	input := writeFile(t, "job.json", sampleInventory)

	var out bytes.Buffer
	require.NoError(t, execute([]string{"movequote", "estimate", "--input", input}, &out, &out))
	assert.Contains(t, out.String(), "Jane Doe")
	assert.Contains(t, out.String(), "Estimate: $680.00 - $842.00")
}

func TestEstimateWithRatesFile(t *testing.T) {
	color.NoColor = true
	input := writeFile(t, "job.json", sampleInventory)
	ratesFile := writeFile(t, "rates.toml", "boxCost = 0\n")

	var out bytes.Buffer
	require.NoError(t, execute([]string{"movequote", "estimate", "-i", input, "--rates", ratesFile}, &out, &out))
	assert.Contains(t, out.String(), "Estimate: $660.00 - $822.00")
}

func TestEstimateReadsNumericStringsInRooms(t *testing.T) {
	color.NoColor = true
	input := writeFile(t, "job.json", `{
  "clientName": "Jane Doe",
  "movers": "2",
  "hoursLow": 4,
  "hoursHigh": 5,
  "vehicles": 1,
  "mileage": 10,
  "rooms": [
    {"id": 1, "name": "Den", "width": "10", "length": "8", "override": {"boxes": "5", "dishPacks": "n/a"},
     "furnitureItems": [{"id": "1", "name": "Couch", "width": "84", "length": "36", "height": "x"}]}
  ]
}`)
	ratesFile := writeFile(t, "rates.toml", "boxCost = \"abc\"\n")

	var out bytes.Buffer
	require.NoError(t, execute([]string{"movequote", "estimate", "-i", input, "--rates", ratesFile, "--format", "csv"}, &out, &out))
	assert.Contains(t, out.String(), "Den (10x8)")
	assert.Contains(t, out.String(), "Couch")

	out.Reset()
	require.NoError(t, execute([]string{"movequote", "estimate", "-i", input, "--rates", ratesFile}, &out, &out))
	assert.Contains(t, out.String(), "Estimate: $660.00 - $822.00")
}

func TestEstimateCSV(t *testing.T) {
	input := writeFile(t, "job.json", sampleInventory)

	var out bytes.Buffer
	require.NoError(t, execute([]string{"movequote", "estimate", "-i", input, "--format", "csv"}, &out, &out))
	assert.Contains(t, out.String(), "Client Name")
	assert.Contains(t, out.String(), "Den (10x8)")
}

func TestEstimateErrors(t *testing.T) {
	input := writeFile(t, "job.json", sampleInventory)
	var out bytes.Buffer

	assert.Error(t, execute([]string{"movequote", "estimate"}, &out, &out))
	assert.Error(t, execute([]string{"movequote", "estimate", "-i", filepath.Join(t.TempDir(), "missing.json")}, &out, &out))
	assert.Error(t, execute([]string{"movequote", "estimate", "-i", writeFile(t, "bad.json", "{")}, &out, &out))
	assert.Error(t, execute([]string{"movequote", "estimate", "-i", input, "--format", "pdf"}, &out, &out))
	assert.Error(t, execute([]string{"movequote", "estimate", "-i", input, "--rates", writeFile(t, "r.toml", "tipJar = 1\n")}, &out, &out))
}

func TestNewDetector(t *testing.T) {
	logger := slog.Default()

	_, ok := newDetector(&config.Config{VisionBackend: "claude"}, logger).(vision.Unavailable)
	assert.True(t, ok, "claude without a key disables detection")

	_, ok = newDetector(&config.Config{VisionBackend: "claude", ClaudeAPIKey: "k"}, logger).(*claudevision.ClaudeDetector)
	assert.True(t, ok)

	_, ok = newDetector(&config.Config{VisionBackend: "none"}, logger).(vision.Unavailable)
	assert.True(t, ok)

	_, ok = newDetector(&config.Config{VisionBackend: "ollama"}, logger).(*ollamavision.OllamaDetector)
	assert.True(t, ok)
}
