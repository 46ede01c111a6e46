package style

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/9to5-byte/XPoster/keyword"
)

var sampleExtensions = []string{".txt", ".md", ".text"}

// Documents manages the writing sample corpus on disk.
type Documents struct {
	dir    string
	logger *slog.Logger
}

func NewDocuments(dir string) (*Documents, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating samples dir: %w", err)
	}
	return &Documents{
		dir:    dir,
		logger: slog.Default().With("subsystem", "style"),
	}, nil
}

func (d *Documents) Dir() string {
	return d.dir
}

// LoadSamples reads every supported file in the samples directory.
// Unreadable or empty files are skipped, not fatal.
func (d *Documents) LoadSamples() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("reading samples dir: %w", err)
	}

	var samples []string
	for _, ent := range entries {
		if ent.IsDir() || !slices.Contains(sampleExtensions, strings.ToLower(filepath.Ext(ent.Name()))) {
			continue
		}
		b, err := os.ReadFile(filepath.Join(d.dir, ent.Name()))
		if err != nil {
			d.logger.Warn("skipping unreadable sample", "file", ent.Name(), "err", err)
			continue
		}
		content := strings.TrimSpace(string(b))
		if content == "" {
			continue
		}
		samples = append(samples, content)
	}

	d.logger.Info("loaded writing samples", "count", len(samples))
	return samples, nil
}

// AddSample stores a new writing sample. Filenames are normalized to a form
// LoadSamples will pick up; an empty or unusable filename gets a timestamped
// one.
func (d *Documents) AddSample(content string, filename string) (string, error) {
	filename = normalizeSampleName(filename)
	path := filepath.Join(d.dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing sample: %w", err)
	}
	d.logger.Info("added writing sample", "file", filename)
	return path, nil
}

func normalizeSampleName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	stem := strings.Join(keyword.TokenizeIdentifier(strings.TrimSuffix(filename, filepath.Ext(filename))), "_")
	if stem == "" {
		return fmt.Sprintf("sample_%s.txt", time.Now().Format("20060102_150405"))
	}
	if !slices.Contains(sampleExtensions, ext) {
		ext = ".txt"
	}
	return stem + ext
}
