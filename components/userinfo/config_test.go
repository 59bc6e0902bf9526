package userinfo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConfigAppliesDefaults(t *testing.T) {
	cfg, err := DecodeConfig(strings.NewReader("locale: es\n"), nil)
	require.NoError(t, err)

	assert.Equal(t, ConfigVersion, cfg.Version)
	assert.Equal(t, DefaultSearchID, cfg.SearchID)
	assert.Equal(t, DefaultContainerID, cfg.ContainerID)
	assert.Equal(t, DefaultQuery, cfg.Query)
	assert.Equal(t, "Getting user info...", cfg.Messages.Loading)
	assert.False(t, cfg.Splunk.Enabled())
}

func TestDecodeConfigFull(t *testing.T) {
	doc := `
version: "1"
search_id: user_info_search
container_id: user_info
messages:
  empty: Nothing here.
  loading_localized:
    es: Cargando...
splunk:
  base_url: https://splunk.local:8089
  token: abc
  app: search
  poll_interval: 250ms
`
	cfg, err := DecodeConfig(strings.NewReader(doc), NewJSONSchemaValidator())
	require.NoError(t, err)

	assert.Equal(t, "Nothing here.", cfg.Messages.Empty)
	assert.Equal(t, "Cargando...", cfg.Messages.LoadingLocalized["es"])
	assert.True(t, cfg.Splunk.Enabled())
	interval, err := cfg.Splunk.Interval()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, interval)
}

func TestDecodeConfigRejectsUnknownKeys(t *testing.T) {
	_, err := DecodeConfig(strings.NewReader("search_id: x\nunknown_key: true\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown_key")
}

func TestDecodeConfigRejectsEmptyDocument(t *testing.T) {
	_, err := DecodeConfig(strings.NewReader(""), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestDecodeConfigSchemaFailures(t *testing.T) {
	cases := map[string]string{
		"version":      "version: \"2\"\n",
		"container id": "container_id: \"1bad id\"\n",
		"base url":     "splunk:\n  base_url: splunk.local\n",
		"interval":     "splunk:\n  poll_interval: soon\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeConfig(strings.NewReader(doc), nil)
			assert.Error(t, err)
		})
	}
}

func TestSplunkIntervalValidation(t *testing.T) {
	_, err := SplunkConfig{PollInterval: "0s"}.Interval()
	assert.Error(t, err)
	d, err := SplunkConfig{}.Interval()
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)
}

func TestLoadConfigFileRecordsSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "userinfo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search_id: user_info_search\n"), 0o600))

	cfg, err := LoadConfigFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestJSONSchemaValidatorCachesCompiledSchemas(t *testing.T) {
	validator := NewJSONSchemaValidator()
	def := WidgetDefinition{Code: "demo.widget.cache", Schema: map[string]any{"type": "object"}}

	require.NoError(t, validator.Validate(def, nil))
	require.NoError(t, validator.Validate(def, map[string]any{}))
	assert.Len(t, validator.compiled, 1)

	require.NoError(t, validator.Validate(WidgetDefinition{Code: "no.schema"}, map[string]any{"x": 1}))
	assert.Len(t, validator.compiled, 1)
}

func TestDecodeConfigReportsProblemPaths(t *testing.T) {
	doc := "container_id: \"1bad id\"\nsplunk:\n  base_url: splunk.local\n"
	_, err := DecodeConfig(strings.NewReader(doc), NewJSONSchemaValidator())
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, DefaultWidgetID, cfgErr.Widget)

	paths := make([]string, 0, len(cfgErr.Problems))
	for _, problem := range cfgErr.Problems {
		paths = append(paths, problem.Path)
		assert.NotEmpty(t, problem.Message)
	}
	assert.Contains(t, paths, "/container_id")
	assert.Contains(t, paths, "/splunk/base_url")
	assert.Contains(t, err.Error(), "/splunk/base_url")
}
