package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-userinfo/components/userinfo"
)

func TestReadCSVUsesHeaderRow(t *testing.T) {
	doc := "user_role,user_phone,user_name,user_image,user_fullname,user_email,company_phone,company_name,company_address\n" +
		"Admin,555,jdoe,img,John Doe,jdoe@acme.test,556,Acme,1 Main St\n"
	results, err := readCSV(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, 1, results.Len())

	info, err := userinfo.DecodeRow(0, results.Positional()[0])
	require.NoError(t, err)
	assert.Equal(t, "John Doe", info.UserFullName)
	assert.Equal(t, "1 Main St", info.CompanyAddress)
}

func TestReadCSVEmpty(t *testing.T) {
	results, err := readCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, results.Len())
}

func TestReadResultsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"fields":["a"],"rows":[["1"]]}`), 0o600))
	results, err := readResults(path)
	require.NoError(t, err)
	assert.Equal(t, 1, results.Len())
}

func TestDemoResultsDecode(t *testing.T) {
	for i, row := range demoResults().Positional() {
		_, err := userinfo.DecodeRow(i, row)
		require.NoError(t, err)
	}
}

func TestServeLoadConfigDefaults(t *testing.T) {
	t.Setenv("SPLUNK_BASE_URL", "")
	cfg, err := (&serveCmd{}).loadConfig()
	require.NoError(t, err)
	assert.Equal(t, userinfo.DefaultSearchID, cfg.SearchID)
	assert.False(t, cfg.Splunk.Enabled())
}
