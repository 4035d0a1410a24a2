package cli

import (
	"bytes"
	"os"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	return buf.String()
}

func useMockProvider(t *testing.T) {
	t.Helper()
	t.Setenv("WEAVER_AI_PROVIDER", "mock")
	t.Setenv("WEAVER_AI_MODEL", "test")
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	RootCmd.SetOut(new(bytes.Buffer))
	RootCmd.SetErr(new(bytes.Buffer))
	RootCmd.SetArgs(args)
	return RootCmd.Execute()
}

func initWorkspace(t *testing.T, dir string) {
	t.Helper()
	err := runCLI(t,
		"init", "--project", dir,
		"--user", "alice",
		"--repo", "demo-repo",
		"--start", "2024-01-01",
		"--end", "2024-03-01",
		"--stack", "Go + PostgreSQL",
		"--strategy", "github-flow",
		"--intensity", "5",
	)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
}
