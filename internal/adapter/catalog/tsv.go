package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"newsrec/internal/domain"
)

// Catalog column layout: news_id, category, sub_category, title, abstract,
// url, title_entities, abstract_entities. Tab-separated, no header.
const newsColumns = 8

// Behavior column layout: impression_id, user_id, time, click_history,
// impression_log. Tab-separated, no header.
const behaviorColumns = 5

// TSVCatalog loads articles from tab-separated files matched by a glob.
type TSVCatalog struct {
	glob string
	log  zerolog.Logger
}

func NewTSVCatalog(glob string, log zerolog.Logger) *TSVCatalog {
	return &TSVCatalog{
		glob: glob,
		log:  log.With().Str("component", "catalog").Logger(),
	}
}

// Load reads every matched file in glob order. A later file overrides an
// earlier one on duplicate ids (MIND splits repeat articles).
func (c *TSVCatalog) Load(ctx context.Context) ([]domain.Article, error) {
	paths, err := resolveGlob(c.glob)
	if err != nil {
		return nil, &domain.DataError{Source: c.glob, Err: err}
	}
	if len(paths) == 0 {
		return nil, &domain.DataError{Source: c.glob, Err: fmt.Errorf("no files match")}
	}

	var articles []domain.Article
	seen := make(map[string]int)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := readTSV(path)
		if err != nil {
			return nil, &domain.DataError{Source: path, Err: err}
		}

		skipped := 0
		for _, row := range rows {
			if len(row) < 5 || strings.TrimSpace(row[0]) == "" {
				skipped++
				continue
			}
			a := domain.Article{
				NewsID:      row[0],
				Category:    row[1],
				SubCategory: row[2],
				Title:       row[3],
				Abstract:    row[4],
			}
			if len(row) > 5 {
				a.URL = row[5]
			}
			if len(row) > 6 {
				a.TitleEntities = row[6]
			}
			if len(row) > 7 {
				a.AbstractEntities = row[7]
			}

			if idx, ok := seen[a.NewsID]; ok {
				articles[idx] = a
				continue
			}
			seen[a.NewsID] = len(articles)
			articles = append(articles, a)
		}

		if skipped > 0 {
			c.log.Warn().Str("file", path).Int("rows", skipped).Msg("skipped malformed catalog rows")
		}
		c.log.Info().Str("file", path).Int("articles", len(articles)).Msg("catalog file loaded")
	}

	return articles, nil
}

// TSVBehaviors loads click histories from tab-separated behavior files.
type TSVBehaviors struct {
	glob string
	log  zerolog.Logger
}

func NewTSVBehaviors(glob string, log zerolog.Logger) *TSVBehaviors {
	return &TSVBehaviors{
		glob: glob,
		log:  log.With().Str("component", "behaviors").Logger(),
	}
}

// History returns the user's click history from their first impression row,
// oldest click first. A user with no rows gets an empty history, not an error.
func (b *TSVBehaviors) History(ctx context.Context, userID string) (domain.ClickHistory, error) {
	paths, err := resolveGlob(b.glob)
	if err != nil {
		return nil, &domain.DataError{Source: b.glob, Err: err}
	}
	if len(paths) == 0 {
		return nil, &domain.DataError{Source: b.glob, Err: fmt.Errorf("no files match")}
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := readTSV(path)
		if err != nil {
			return nil, &domain.DataError{Source: path, Err: err}
		}

		for _, row := range rows {
			if len(row) < 4 || row[1] != userID {
				continue
			}
			return domain.ClickHistory(strings.Fields(row[3])), nil
		}
	}

	return nil, nil
}

// Users lists distinct user ids in file order, up to limit (0 = all).
func (b *TSVBehaviors) Users(ctx context.Context, limit int) ([]string, error) {
	paths, err := resolveGlob(b.glob)
	if err != nil {
		return nil, &domain.DataError{Source: b.glob, Err: err}
	}

	var users []string
	seen := make(map[string]bool)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := readTSV(path)
		if err != nil {
			return nil, &domain.DataError{Source: path, Err: err}
		}
		for _, row := range rows {
			if len(row) < 2 || seen[row[1]] {
				continue
			}
			seen[row[1]] = true
			users = append(users, row[1])
			if limit > 0 && len(users) >= limit {
				return users, nil
			}
		}
	}

	return users, nil
}

func readTSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// resolveGlob expands a doublestar pattern. A plain path with no meta
// characters resolves to itself.
func resolveGlob(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, nil
	}

	base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
	matches, err := doublestar.Glob(os.DirFS(base), rest)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(base, m)
	}
	return paths, nil
}
