// Package lexicon loads synonym and skip lists from plain text files.
package lexicon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/domain/synonym"
)

// Repo reads lexicon files from disk.
type Repo struct {
	synonymsPath string
	skipsPath    string
	logger       *zap.Logger
}

// New creates a lexicon repository. An empty path disables that file.
func New(synonymsPath, skipsPath string, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{synonymsPath: synonymsPath, skipsPath: skipsPath, logger: logger}
}

// Load reads both files and builds the synonym table. A missing file
// contributes nothing and is logged; a file that cannot be read is an error.
func (r *Repo) Load() (*synonym.Table, error) {
	aliases, skips, err := r.Entries()
	if err != nil {
		return nil, err
	}
	t := synonym.New(aliases, skips)
	r.logger.Info("lexicon loaded",
		zap.Int("synonyms", t.Len()),
		zap.Int("skips", t.SkipCount()),
	)
	return t, nil
}

// Entries reads both files without building a table, so callers can merge
// them with entries from elsewhere.
func (r *Repo) Entries() ([]synonym.Alias, []string, error) {
	var aliases []synonym.Alias
	err := r.withFile(r.synonymsPath, "synonyms", func(rd io.Reader) error {
		var err error
		aliases, err = ParseSynonyms(rd)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	var skips []string
	err = r.withFile(r.skipsPath, "skips", func(rd io.Reader) error {
		var err error
		skips, err = ParseSkips(rd)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return aliases, skips, nil
}

func (r *Repo) withFile(path, kind string, fn func(io.Reader) error) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("lexicon file not found", zap.String("kind", kind), zap.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s file: %w", kind, err)
	}
	defer func() { _ = f.Close() }()

	if err := fn(f); err != nil {
		return fmt.Errorf("read %s file %s: %w", kind, path, err)
	}
	return nil
}

// ParseSynonyms reads lines of "canonical alias1 alias2 ...". Blank lines
// and lines starting with # are ignored. A line with a single word
// declares no aliases.
func ParseSynonyms(rd io.Reader) ([]synonym.Alias, error) {
	var out []synonym.Alias
	err := eachLine(rd, func(line string) {
		words := strings.Fields(line)
		out = append(out, synonym.Alias{Canonical: words[0], Terms: words[1:]})
	})
	return out, err
}

// ParseSkips reads one skipped field name per line.
func ParseSkips(rd io.Reader) ([]string, error) {
	var out []string
	err := eachLine(rd, func(line string) {
		out = append(out, line)
	})
	return out, err
}

func eachLine(rd io.Reader, fn func(string)) error {
	sc := bufio.NewScanner(rd)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fn(line)
	}
	return sc.Err()
}
