package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"webcat-submit/internal/scrapers/webcat"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("HOME", "/home/ada")
	t.Setenv("XDG_CONFIG_HOME", "/home/ada/.config")

	dir := t.TempDir()
	path := filepath.Join(dir, "webcat.json5")
	err := os.WriteFile(path, []byte(`{
		// one per course
		submit_urls: ["https://webcat.example.edu/submit"],
		http: { timeout_seconds: 5 },
		report_dir: "~/reports",
	}`), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "webcat.local.json5"), []byte(`{
		notify: { smtp: { server: "localhost", port: 1025 }, to: ["ada@example.edu"] },
	}`), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, []string{"https://webcat.example.edu/submit"}, config.SubmitUrls)
	require.Equal(t, filepath.FromSlash("/home/ada/reports"), config.ReportDir)
	require.Equal(t, filepath.FromSlash("/home/ada/.config/webcat-submit/state.db"), config.State.File)
	require.True(t, config.Notify.Enabled())
	require.Equal(t, webcat.ClientOptions{
		Timeout:           5 * time.Second,
		RequestsPerSecond: 4,
	}, config.ClientOptions())
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "webcat.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfigDisabledReports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webcat.json5")
	err := os.WriteFile(path, []byte(`{report_dir: "-", state: {url: "libsql://db.example.edu"}}`), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.Empty(t, config.ReportDir)
	require.Equal(t, "libsql://db.example.edu", config.State.Url)
	require.False(t, config.Notify.Enabled())
}

func TestSubmitUrlOf(t *testing.T) {
	lab := webcat.Assignment{
		Name:      "Lab 01",
		Group:     "CS 1114",
		Transport: webcat.Transport{Uri: "https://webcat.example.edu/upload"},
	}
	roots := []webcat.SubmissionRoot{
		{
			Url: "https://webcat.example.edu/cs2114",
			Groups: []webcat.AssignmentGroup{
				{Name: "CS 2114", Assignments: []webcat.Assignment{{Name: "Lab 01", Group: "CS 2114"}}},
			},
		},
		{
			Url: "https://webcat.example.edu/cs1114",
			Groups: []webcat.AssignmentGroup{
				{Name: "CS 1114", Assignments: []webcat.Assignment{lab}},
			},
		},
	}

	require.Equal(t, "https://webcat.example.edu/cs1114", submitUrlOf(roots, lab))
	require.Empty(t, submitUrlOf(roots, webcat.Assignment{Name: "Lab 02", Group: "CS 1114"}))
}
