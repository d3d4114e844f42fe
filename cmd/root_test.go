package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascentvc/diligence-cli/internal/config"
	"github.com/ascentvc/diligence-cli/internal/model"
)

func testConfig(driver, url string) *config.Config {
	return &config.Config{Warehouse: config.WarehouseConfig{Driver: driver, DatabaseURL: url}}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"analyze", "extract", "risk", "batch", "results", "company", "migrate", "serve"}
	registered := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, registered[name], "command %q not registered", name)
	}
}

func TestCompanyFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addCompanyFlags(cmd)
	require.NoError(t, cmd.Flags().Set("name", "Acme"))
	require.NoError(t, cmd.Flags().Set("sector", "saas"))
	require.NoError(t, cmd.Flags().Set("arr", "2500000"))
	require.NoError(t, cmd.Flags().Set("revenue-growth", "140"))

	c, err := companyFromFlags(cmd)
	require.NoError(t, err)

	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, "saas", c.Sector)
	require.NotNil(t, c.ARRUSD)
	assert.InDelta(t, 2.5e6, *c.ARRUSD, 0.001)
	require.NotNil(t, c.RevenueGrowthPct)
	assert.InDelta(t, 140.0, *c.RevenueGrowthPct, 0.001)
	assert.Nil(t, c.BurnMultiple, "unset metric flags stay nil")
	assert.Nil(t, c.TAMUSD)
}

func TestCompanyFromFlags_ZeroIsPopulated(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addCompanyFlags(cmd)
	require.NoError(t, cmd.Flags().Set("debt", "0"))

	c, err := companyFromFlags(cmd)
	require.NoError(t, err)
	require.NotNil(t, c.DebtUSD, "explicitly set zero is not absent")
	assert.Zero(t, *c.DebtUSD)
}

func TestOverlayFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addCompanyFlags(cmd)
	require.NoError(t, cmd.Flags().Set("stage", "series_b"))
	require.NoError(t, cmd.Flags().Set("arr", "4000000"))

	baseARR := 1e6
	base := model.Company{Name: "Acme", Stage: "seed", ARRUSD: &baseARR}
	flags, err := companyFromFlags(cmd)
	require.NoError(t, err)

	merged := overlayFlags(base, flags, cmd)
	assert.Equal(t, "Acme", merged.Name, "profile value survives when flag unset")
	assert.Equal(t, "series_b", merged.Stage)
	assert.InDelta(t, 4e6, *merged.ARRUSD, 0.001)
}

func TestCollectLocalDecks(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.pdf", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	paths, err := collectLocalDecks(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "a.pdf"), paths[0])
	assert.Equal(t, filepath.Join(dir, "b.pdf"), paths[1])
}

func TestInitExtraction_ManagedWithoutKey(t *testing.T) {
	// Managed OCR selected but no key configured: the chain still builds
	// from the local strategies instead of failing.
	origCfg := cfg
	defer func() { cfg = origCfg }()

	cfg = &config.Config{OCR: config.OCRConfig{Provider: "managed"}}
	pre, chain, err := initExtraction()
	require.NoError(t, err)
	assert.NotNil(t, pre)
	assert.NotNil(t, chain)
}

func TestInitExtraction_DefaultConfig(t *testing.T) {
	origCfg := cfg
	defer func() { cfg = origCfg }()

	cfg = &config.Config{OCR: config.OCRConfig{Provider: "local"}}
	_, chain, err := initExtraction()
	require.NoError(t, err)
	assert.NotNil(t, chain)
}

func TestInitExtraction_UnknownProvider(t *testing.T) {
	origCfg := cfg
	defer func() { cfg = origCfg }()

	cfg = &config.Config{OCR: config.OCRConfig{Provider: "cloudy"}}
	_, _, err := initExtraction()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown ocr provider "cloudy"`)
}

func TestWarehouseConfigured(t *testing.T) {
	// exercised through the package-level cfg the commands read
	origCfg := cfg
	defer func() { cfg = origCfg }()

	cfg = testConfig("postgres", "")
	assert.False(t, warehouseConfigured())

	cfg = testConfig("postgres", "postgres://localhost/diligence")
	assert.True(t, warehouseConfigured())

	cfg = testConfig("sqlite", "")
	assert.True(t, warehouseConfigured())
}
