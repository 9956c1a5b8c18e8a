package kryptor

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/kryptor-go/kryptor/keyring"
)

// BatchStats aggregates the outcome of a batch run. It is a plain value
// threaded through the driver; nothing in the package keeps process-wide
// counters.
type BatchStats struct {
	Total     int
	Succeeded int
	Failed    int
}

// BatchResult records the outcome for a single input path.
type BatchResult struct {
	InputPath  string
	OutputPath string
	Err        error
}

// BatchDriver runs file operations sequentially over a list of input paths.
// A failure on one file is logged and counted but never aborts the rest of
// the batch.
type BatchDriver struct {
	Log      *logrus.Logger
	Progress ProgressSink
}

func NewBatchDriver() *BatchDriver {
	return &BatchDriver{Log: logrus.New()}
}

// ValidatePaths checks every input path up front and returns the paths that
// remain usable together with one error per rejected path. No files are
// touched.
func ValidatePaths(paths []string) (valid []string, problems []error) {
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		if path == "" {
			problems = append(problems, fmt.Errorf("%w: empty path", ErrValidation))
			continue
		}
		if _, dup := seen[path]; dup {
			problems = append(problems, fmt.Errorf("%w: duplicate path %s", ErrValidation, path))
			continue
		}
		seen[path] = struct{}{}
		if _, err := os.Stat(path); err != nil {
			problems = append(problems, fmt.Errorf("%w: %v", ErrValidation, err))
			continue
		}
		valid = append(valid, path)
	}
	return valid, problems
}

// EncryptFiles encrypts every path in the batch.
func (b *BatchDriver) EncryptFiles(ctx context.Context, paths []string, source keyring.KEKSource, opts Options) (BatchStats, []BatchResult) {
	enc := NewEncryptor(source, opts)
	enc.Progress = b.Progress
	return b.run(ctx, paths, "encrypt", func(ctx context.Context, path string) (string, error) {
		return enc.EncryptFile(ctx, path)
	})
}

// DecryptFiles decrypts every path in the batch.
func (b *BatchDriver) DecryptFiles(ctx context.Context, paths []string, source keyring.KEKSource) (BatchStats, []BatchResult) {
	dec := NewDecryptor(source)
	dec.Progress = b.Progress
	return b.run(ctx, paths, "decrypt", func(ctx context.Context, path string) (string, error) {
		return dec.DecryptFile(ctx, path)
	})
}

func (b *BatchDriver) run(ctx context.Context, paths []string, op string, fn func(context.Context, string) (string, error)) (BatchStats, []BatchResult) {
	stats := BatchStats{Total: len(paths)}
	results := make([]BatchResult, 0, len(paths))

	valid, problems := ValidatePaths(paths)
	for _, err := range problems {
		stats.Failed++
		results = append(results, BatchResult{Err: err})
		b.logError(op, "", err)
	}

	for _, path := range valid {
		output, err := fn(ctx, path)
		if err != nil {
			stats.Failed++
			results = append(results, BatchResult{InputPath: path, Err: err})
			b.logError(op, path, err)
			continue
		}
		stats.Succeeded++
		results = append(results, BatchResult{InputPath: path, OutputPath: output})
		if b.Log != nil {
			b.Log.WithFields(logrus.Fields{
				"op":     op,
				"input":  path,
				"output": output,
			}).Info("file processed")
		}
	}
	return stats, results
}

func (b *BatchDriver) logError(op, path string, err error) {
	if b.Log == nil {
		return
	}
	b.Log.WithFields(logrus.Fields{
		"op":    op,
		"input": path,
	}).WithError(err).Error("file failed")
}
