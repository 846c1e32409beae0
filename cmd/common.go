/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/valpere/bookflow/internal/completion"
	"github.com/valpere/bookflow/internal/metrics"
	"github.com/valpere/bookflow/internal/pipeline"
	"github.com/valpere/bookflow/internal/source"
	"github.com/valpere/bookflow/internal/store"
	"github.com/valpere/bookflow/internal/validator"
)

// openStore opens the configured backend; the caller closes it.
func openStore(ctx context.Context, m *metrics.Metrics) (store.Store, error) {
	s, err := store.Open(ctx, appCfg.Store, log, m)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

func newFetcher(m *metrics.Metrics) *source.Fetcher {
	return source.New(appCfg.Source, log, m)
}

// buildPipeline wires the configured completion provider into a Pipeline.
// The returned func releases provider resources.
func buildPipeline(ctx context.Context, m *metrics.Metrics) (*pipeline.Pipeline, func(), error) {
	c, err := completion.New(ctx, appCfg.Completion, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create completion provider: %w", err)
	}
	release := func() {}
	if closer, ok := c.(io.Closer); ok {
		release = func() { _ = closer.Close() }
	}

	var checker pipeline.Checker = validator.NewWithoutDetection()
	if appCfg.Validation.LanguageCheck {
		checker = validator.New()
	}

	return pipeline.New(completion.Instrument(c, m), checker, log, m), release, nil
}

// readInput reads path, or stdin when path is "-".
func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	return string(data), nil
}

// writeOutput writes data to path, creating its directory, or to stdout when
// path is empty or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
