package commands

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/design-automation/mobius-sim-go/pkg/sim"
	"github.com/design-automation/mobius-sim-go/pkg/simio"
	"github.com/design-automation/mobius-sim-go/pkg/storage"
)

// openLocation resolves a model file location with the configured S3
// settings.
func openLocation(loc string) (storage.FileStore, string, error) {
	var s3cfg storage.S3Config
	if cfg, err := GetConfig(); err == nil {
		s3cfg = cfg.Storage()
	}
	return storage.Open(loc, s3cfg)
}

// readFile returns the raw bytes of a model file and its format.
func readFile(ctx context.Context, loc string) ([]byte, simio.Format, error) {
	format, err := simio.FormatOf(loc)
	if err != nil {
		return nil, "", err
	}
	fs, path, err := openLocation(loc)
	if err != nil {
		return nil, "", err
	}
	data, err := storage.ReadFile(ctx, fs, path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", loc, err)
	}
	return data, format, nil
}

func readDocument(ctx context.Context, loc string) (*simio.Document, error) {
	data, format, err := readFile(ctx, loc)
	if err != nil {
		return nil, err
	}
	doc, err := simio.Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", loc, err)
	}
	return doc, nil
}

// loadModel reads a model file into a new model.
func loadModel(ctx context.Context, loc string) (*sim.Model, error) {
	doc, err := readDocument(ctx, loc)
	if err != nil {
		return nil, err
	}
	m := sim.New(sim.WithLogger(slog.Default()))
	if err := simio.Import(m, doc); err != nil {
		return nil, fmt.Errorf("import %s: %w", loc, err)
	}
	return m, nil
}

// writeDocument encodes doc in the format chosen by the extension of loc.
func writeDocument(ctx context.Context, loc string, doc *simio.Document) (int, error) {
	format, err := simio.FormatOf(loc)
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	if err := simio.Encode(&buf, doc, format); err != nil {
		return 0, err
	}
	fs, path, err := openLocation(loc)
	if err != nil {
		return 0, err
	}
	if err := storage.WriteFile(ctx, fs, path, buf.Bytes()); err != nil {
		return 0, fmt.Errorf("write %s: %w", loc, err)
	}
	slog.Debug("model written", "location", loc, "format", format, "bytes", buf.Len())
	return buf.Len(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
