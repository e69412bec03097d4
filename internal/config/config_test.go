package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.InDelta(t, 0.3, cfg.Retrieval.BM25Weight, 1e-9)
	assert.InDelta(t, 0.7, cfg.Retrieval.VectorWeight, 1e-9)
	assert.Equal(t, 10, cfg.Retrieval.TopKBM25)
	assert.Equal(t, 10, cfg.Retrieval.TopKVector)
	assert.Equal(t, "auto", cfg.Retrieval.DefaultLanguage)
	assert.Equal(t, 8093, cfg.Server.Port)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Retrieval, cfg.Retrieval)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faqd.yaml")
	data := `
retrieval:
  bm25_weight: 1.0
  vector_weight: 0.0
server:
  port: 9000
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, cfg.Retrieval.BM25Weight, 1e-9)
	assert.InDelta(t, 0.0, cfg.Retrieval.VectorWeight, 1e-9)
	assert.Equal(t, 9000, cfg.Server.Port)
	// Untouched fields keep their defaults.
	assert.Equal(t, 10, cfg.Retrieval.TopKBM25)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("FAQD_PORT", "9999")
	t.Setenv("FAQD_DEFAULT_LANGUAGE", "zh")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "zh", cfg.Retrieval.DefaultLanguage)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Retrieval.BM25Weight = 0
	cfg.Retrieval.VectorWeight = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Server.Port = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestServerAddr(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1:8093", cfg.Server.Addr())
}
