package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/domain/batch"
	"github.com/kailas-cloud/smartsearch/internal/domain/document"
	bulkuc "github.com/kailas-cloud/smartsearch/internal/usecase/bulk"
)

// errDocumentsFailed marks a load that finished with rejected documents.
var errDocumentsFailed = errors.New("documents failed")

func (st *state) askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return errors.New("a question is required")
	}
	index, err := st.index(c)
	if err != nil {
		return err
	}

	svc, err := buildServices(c.Context, st.cfg, st.logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.search.Ask(c.Context, index, question, c.Int("size"), 0, false)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if len(res.Answers) == 0 {
		fmt.Fprintf(w, "no answer (%d hits)\n", res.Total)
	}
	for _, a := range res.Answers {
		fmt.Fprintf(w, "%s:\n", a.Field)
		for _, p := range a.Paths {
			fmt.Fprintf(w, "  %s\n", p.String())
		}
	}
	if c.Bool("hits") {
		fmt.Fprintf(w, "hits (%d total):\n", res.Total)
		for i := range res.Hits {
			h := &res.Hits[i]
			fmt.Fprintf(w, "  %-8.3f %s\n", h.Score(), h.ID())
		}
	}
	return nil
}

func (st *state) loadCommand(c *cli.Context) error {
	index, err := st.index(c)
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(c.Path("file"), c.App.Reader)
	if err != nil {
		return err
	}
	defer closeIn()

	ctx := c.Context
	svc, err := buildServices(ctx, st.cfg, st.logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if c.Bool("create") {
		in, err = st.ensureIndex(ctx, svc, index, in)
		if err != nil {
			return err
		}
	}

	cfg := bulkConfig(st.cfg.Bulk)
	if c.IsSet("batch-size") {
		cfg.BatchActions = c.Int("batch-size")
	}
	if c.IsSet("concurrency") {
		cfg.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("rate") {
		cfg.RatePerSecond = c.Float64("rate")
	}

	logger := st.logger.With(zap.String("index", index))
	loader, err := bulkuc.New(svc.submitter, index, cfg,
		bulkuc.WithLogger(logger),
		bulkuc.OnBatch(func(r batch.Report) {
			if failed := r.Failed(); failed > 0 {
				logger.Warn("Batch had failures",
					zap.Int64("execution", r.Execution),
					zap.Int("failed", failed),
					zap.Error(r.FirstError()),
				)
			}
		}),
		bulkuc.OnProgress(func(n int64) {
			fmt.Fprintf(c.App.ErrWriter, "%d documents queued\n", n)
		}),
	)
	if err != nil {
		return err
	}

	lines := bulkuc.NewNDJSON(in, st.cfg.Bulk.IDField)
	consumeErr := loader.Consume(ctx, lines.Items())
	summary, closeErr := loader.Close(ctx)

	fmt.Fprintf(c.App.Writer, "loaded %d of %d documents into %s (%d failed, %d batches, %s, run %s)\n",
		summary.Succeeded, summary.Items, index, summary.Failed, summary.Batches,
		summary.Duration.Round(time.Millisecond), summary.RunID)

	if err := errors.Join(lines.Err(), consumeErr, closeErr); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", errDocumentsFailed, summary.Failed, summary.Items)
	}
	return nil
}

// ensureIndex creates index from the first documents of in when it does not
// exist yet. The returned reader replays what was read.
func (st *state) ensureIndex(ctx context.Context, svc *services, index string, in io.Reader) (io.Reader, error) {
	ok, err := svc.indexes.Exists(ctx, index)
	if err != nil || ok {
		return in, err
	}

	head, samples, err := readSamples(in, st.cfg.Search.SampleSize)
	if err != nil {
		return nil, err
	}
	sc, err := svc.indexes.CreateFromSamples(ctx, index, samples)
	if err != nil {
		return nil, err
	}
	st.logger.Warn("Index created from samples",
		zap.String("index", index),
		zap.Int("samples", len(samples)),
		zap.Int("fields", len(sc.Fields())),
	)
	return head, nil
}

// readSamples decodes up to n non-blank lines of r. The returned reader
// yields the consumed bytes followed by the rest of r.
func readSamples(r io.Reader, n int) (io.Reader, []document.Value, error) {
	br := bufio.NewReader(r)
	var (
		buf     bytes.Buffer
		samples []document.Value
	)
	for len(samples) < n {
		line, err := br.ReadBytes('\n')
		buf.Write(line)
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if v, derr := document.Decode(trimmed); derr == nil {
				samples = append(samples, v)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read samples: %w", err)
		}
	}
	return io.MultiReader(&buf, br), samples, nil
}

func (st *state) fieldsCommand(c *cli.Context) error {
	indexes := c.StringSlice("index")
	if len(indexes) == 0 {
		if st.cfg.Search.DefaultIndex == "" {
			return errors.New("--index is required (or set search.default_index)")
		}
		indexes = []string{st.cfg.Search.DefaultIndex}
	}
	size := st.cfg.Search.SampleSize
	if c.IsSet("size") {
		size = c.Int("size")
	}

	svc, err := buildServices(c.Context, st.cfg, st.logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if len(indexes) == 1 {
		_, err = svc.search.WriteFields(c.Context, c.App.Writer, indexes[0], size)
		return err
	}
	set, err := svc.search.FieldsAcross(c.Context, indexes, size)
	if err != nil {
		return err
	}
	_, err = set.WriteTo(c.App.Writer)
	return err
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
