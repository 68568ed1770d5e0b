package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"steno/internal/clipboard"
	"steno/internal/config"
	"steno/internal/jobs"
	"steno/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	backend    *testsupport.Backend
	clip       *clipboard.Memory
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	backend := testsupport.NewBackend(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithServerURL(backend.URL()),
		testsupport.WithStorageBackend(config.StorageSQLite),
	)
	base := testsupport.BaseDir(cfg)

	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("STENO_SERVER_URL", "")
	t.Setenv("STENO_API_TOKEN", "")

	configPath := filepath.Join(homeDir, ".config", "steno", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		backend:    backend,
		clip:       &clipboard.Memory{},
		configPath: configPath,
		baseDir:    base,
	}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, args, env.configPath, env.clip)
}

func runCLI(t *testing.T, args []string, configPath string, clip clipboard.Writer) (string, string, error) {
	t.Helper()
	cmd := buildRootCommand(clip)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func completedMeeting(id string) jobs.Job {
	return jobs.Job{
		ID:       id,
		Filename: "meeting.wav",
		Status:   jobs.StatusCompleted,
		Progress: 100,
		Step:     "done",
		Result: &jobs.Result{
			Segments: []jobs.Segment{
				{Start: 0, End: 2.5, Speaker: "SPEAKER_00", Text: " hello there "},
				{Start: 2.5, End: 4, Speaker: "SPEAKER_01", Text: "hi"},
			},
			Language:       "en",
			GeneratedFiles: jobs.GeneratedFiles{
				"txt": []byte(`"/srv/jobs/meeting.txt"`),
				"srt": []byte(`"/srv/jobs/meeting.srt"`),
			},
		},
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
