package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// withFlags sets the global flags for the duration of the test.
func withFlags(t *testing.T, config, apiKey string) {
	t.Helper()
	oldConfig, oldKey := *configPath, *apiKeyFlag
	t.Cleanup(func() { *configPath, *apiKeyFlag = oldConfig, oldKey })
	*configPath, *apiKeyFlag = config, apiKey
}

func TestLoadConfig_APIKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[eodhd]\napi_key = \"from-file\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	testCases := []struct {
		flag, env, want string
	}{
		{"", "", "from-file"},
		{"", "from-env", "from-env"},
		{"from-flag", "from-env", "from-flag"},
	}
	for _, tc := range testCases {
		withFlags(t, path, tc.flag)
		t.Setenv(eodhdAPIKey, tc.env)
		cfg, err := loadConfig()
		if err != nil {
			t.Fatalf("loadConfig() returned error: %v", err)
		}
		if cfg.EODHD.APIKey != tc.want {
			t.Errorf("loadConfig() with flag %q and env %q got key %q, want %q", tc.flag, tc.env, cfg.EODHD.APIKey, tc.want)
		}
	}
}

func TestOpenSession_NoKey(t *testing.T) {
	withFlags(t, filepath.Join(t.TempDir(), "missing.toml"), "")
	t.Setenv(eodhdAPIKey, "")
	if _, err := openSession(context.Background()); err == nil || !strings.Contains(err.Error(), "API key") {
		t.Errorf("openSession() without a key returned %v", err)
	}
}

func TestSplitTickers(t *testing.T) {
	got := splitTickers(" AAPL,,msft , ")
	if diff := cmp.Diff([]string{"AAPL", "msft"}, got); diff != "" {
		t.Errorf("splitTickers() mismatch (-want +got):\n%s", diff)
	}
	if got := splitTickers(""); len(got) != 0 {
		t.Errorf("splitTickers(\"\") = %v, want none", got)
	}
}

func TestTopicTable(t *testing.T) {
	table, err := topicTable()
	if err != nil {
		t.Fatalf("topicTable() returned error: %v", err)
	}
	for _, want := range []string{"| config |", "| freshness |", "| server |"} {
		if !strings.Contains(table, want) {
			t.Errorf("topicTable() = %q, want a row %q", table, want)
		}
	}
	if strings.Contains(table, "| readme |") {
		t.Errorf("topicTable() lists the index")
	}
}
