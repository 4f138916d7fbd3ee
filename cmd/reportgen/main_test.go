package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertyreport/config"
	"propertyreport/internal/geocoding"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append([]string{"--env-file=" + filepath.Join(t.TempDir(), "missing.env")}, args...))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func TestSampleWritesInputAndImages(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "sample", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "9 images")

	for _, s := range sampleImages {
		info, err := os.Stat(filepath.Join(dir, sampleImageDir, s.Name))
		require.NoError(t, err, s.Name)
		assert.Greater(t, info.Size(), int64(0))
	}

	in, err := config.LoadInputFile(filepath.Join(dir, sampleFile))
	require.NoError(t, err)
	assert.Equal(t, "5, Ridley Road", in.Property.Address)
	assert.Equal(t, "£290,000", in.Investment.PurchasePrice)
	assert.Equal(t, filepath.Join(dir, sampleImageDir), in.ImageDir)
}

func TestGenerateFromSample(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "sample", dir)
	require.NoError(t, err)

	out, err := execute(t, "generate", filepath.Join(dir, sampleFile), "--out", dir+string(os.PathSeparator))
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote ")

	data, err := os.ReadFile(filepath.Join(dir, "5, Ridley Road - Investment Report.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	mdPath := filepath.Join(dir, "summary.md")
	_, err = execute(t, "generate", filepath.Join(dir, sampleFile), "--markdown", "--out", mdPath)
	require.NoError(t, err)
	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Key Information")
}

func TestGenerateMissingInput(t *testing.T) {
	_, err := execute(t, "generate", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGenerateMarkdownInvalidInputLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.yaml")
	require.NoError(t, os.WriteFile(input, []byte("property:\n  postal_code: L6 6DN\n"), 0o644))

	mdPath := filepath.Join(dir, "out", "summary.md")
	_, err := execute(t, "generate", input, "--markdown", "--out", mdPath)
	require.Error(t, err)

	_, statErr := os.Stat(mdPath)
	assert.True(t, os.IsNotExist(statErr))
	entries, err := os.ReadDir(filepath.Dir(mdPath))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMetrics(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "sample", dir)
	require.NoError(t, err)
	input := filepath.Join(dir, sampleFile)

	out, err := execute(t, "metrics", input)
	require.NoError(t, err)
	assert.Contains(t, out, "Total Investment")
	assert.Contains(t, out, "£84,840")
	assert.NotContains(t, out, "warning:")

	out, err = execute(t, "metrics", input, "--json")
	require.NoError(t, err)
	var body struct {
		Metrics struct {
			TotalInvestment float64 `json:"total_investment"`
			Degraded        bool    `json:"degraded"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.InDelta(t, 84840, body.Metrics.TotalInvestment, 1e-6)
	assert.False(t, body.Metrics.Degraded)
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "sample", dir)
	require.NoError(t, err)

	out, err := execute(t, "classify", filepath.Join(dir, sampleImageDir), "extra_floor_plan.jpg")
	require.NoError(t, err)
	for _, section := range []string{"cover", "property", "floor_plans", "directions", "city"} {
		assert.Contains(t, out, section)
	}
	assert.Contains(t, out, "extra_floor_plan.jpg")
}

func TestLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()
	t.Setenv("REPORT_NOMINATIM_URL", srv.URL)
	t.Setenv("REPORT_LOOKUP_INTERVAL", "0s")

	_, err := execute(t, "lookup", "--no-cache", "Nowhere", "Street")
	assert.ErrorIs(t, err, geocoding.ErrNotFound)
}
