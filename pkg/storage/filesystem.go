// Package storage persists the workspace state: configuration, the
// compiled plan, and the last run's outcome, all under a .weaver
// directory at the workspace root.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/weaver/pkg/domain/history"
	"github.com/felixgeelhaar/weaver/pkg/domain/run"
)

const WeaverDir = ".weaver"
const ConfigFile = "config.yaml"
const PlanFile = "plan.yaml"
const RunFile = "last_run.yaml"

type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// ResolvePath ensures the path is a direct child of the .weaver
// directory and rejects traversal.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := filepath.Join(r.root, WeaverDir)
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}
	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	path := filepath.Join(r.root, WeaverDir)
	if err := os.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", WeaverDir, err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.root, WeaverDir))
	return err == nil
}

// RunLogPath is the location of the persisted last-run record, exposed
// so the tail command can follow it.
func (r *FilesystemRepository) RunLogPath() string {
	return filepath.Join(r.root, WeaverDir, RunFile)
}

func (r *FilesystemRepository) SaveConfig(cfg *history.WeaveConfig) error {
	// The yaml:"-" tag on Token keeps the credential out of the file;
	// saving is still refused defensively if the struct is nil.
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	return r.save(ConfigFile, cfg)
}

func (r *FilesystemRepository) LoadConfig() (*history.WeaveConfig, error) {
	var cfg history.WeaveConfig
	if err := r.load(ConfigFile, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *FilesystemRepository) SavePlan(p *history.Plan) error {
	if p == nil {
		return fmt.Errorf("plan is nil")
	}
	return r.save(PlanFile, p)
}

func (r *FilesystemRepository) LoadPlan() (*history.Plan, error) {
	var p history.Plan
	if err := r.load(PlanFile, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *FilesystemRepository) SaveOutcome(o *run.Outcome) error {
	if o == nil {
		return fmt.Errorf("outcome is nil")
	}
	return r.save(RunFile, o)
}

func (r *FilesystemRepository) LoadOutcome() (*run.Outcome, error) {
	var o run.Outcome
	if err := r.load(RunFile, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// HasOutcome reports whether a previous run has been recorded.
func (r *FilesystemRepository) HasOutcome() bool {
	_, err := os.Stat(r.RunLogPath())
	return err == nil
}

func (r *FilesystemRepository) save(filename string, value any) error {
	path, err := r.ResolvePath(filename)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filename, err)
	}
	return os.WriteFile(path, data, 0600)
}

func (r *FilesystemRepository) load(filename string, out any) error {
	retryer := retry.New[struct{}](r.retryConfig)

	_, err := retryer.Do(context.Background(), func(ctx context.Context) (struct{}, error) {
		path, err := r.ResolvePath(filename)
		if err != nil {
			return struct{}{}, err
		}

		// #nosec G304 -- path is validated via ResolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to read %s: %w", filename, err)
		}
		if err := yaml.Unmarshal(data, out); err != nil {
			return struct{}{}, fmt.Errorf("failed to unmarshal %s: %w", filename, err)
		}
		return struct{}{}, nil
	})
	return err
}
