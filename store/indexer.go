package store

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// maxIndexFileSize skips files larger than this (bytes).
const maxIndexFileSize = 1 << 20

var indexableExt = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// IndexReport summarizes one IndexDir run.
type IndexReport struct {
	Indexed int
	Skipped int
}

// IndexDir walks root and upserts every markdown or text file into the index.
// Paths are stored relative to root.
func (s *Store) IndexDir(ctx context.Context, root string) (*IndexReport, error) {
	report := &IndexReport{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !indexableExt[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxIndexFileSize {
			report.Skipped++
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("index read failed", "path", path, "error", err)
			report.Skipped++
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		doc := &Document{
			Path:      filepath.ToSlash(rel),
			Title:     DocumentTitle(rel, content),
			Content:   string(content),
			IndexedTs: time.Now().Unix(),
		}
		if _, err := s.UpsertDocument(ctx, doc); err != nil {
			return errors.Wrapf(err, "failed to index %s", rel)
		}
		report.Indexed++
		return nil
	})
	if err != nil {
		return report, err
	}
	slog.Info("index complete", "root", root, "indexed", report.Indexed, "skipped", report.Skipped)
	return report, nil
}

// DocumentTitle returns the first markdown heading, or the file name
// without extension when the document has none.
func DocumentTitle(path string, content []byte) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(content))
	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		seg := h.Lines().At(0)
		title = strings.TrimSpace(string(seg.Value(content)))
		return ast.WalkStop, nil
	})
	if title != "" {
		return title
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
