// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"soundsmith/internal/services"
)

// MockGenerator is a test double for [services.Generator]
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req services.GenerationRequest, progress func(services.Progress)) (*services.GenerationResult, error)
	ModelsFunc   func(ctx context.Context) ([]services.ModelInfo, error)
	HealthErr    error
}

func (m *MockGenerator) Generate(ctx context.Context, req services.GenerationRequest, progress func(services.Progress)) (*services.GenerationResult, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req, progress)
	}
	return &services.GenerationResult{DurationSeconds: req.DurationSeconds}, nil
}

func (m *MockGenerator) Models(ctx context.Context) ([]services.ModelInfo, error) {
	if m.ModelsFunc != nil {
		return m.ModelsFunc(ctx)
	}
	return []services.ModelInfo{}, nil
}

func (m *MockGenerator) Health(ctx context.Context) error {
	return m.HealthErr
}

func (m *MockGenerator) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
