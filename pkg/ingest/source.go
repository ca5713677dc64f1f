package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"catalogd/pkg/catalog"
	"catalogd/pkg/logger"
)

// Source supplies the raw catalog records for a rebuild. Implementations may
// read from disk, object storage, or an upstream catalog service.
type Source interface {
	Entities(ctx context.Context) ([]catalog.Entity, error)
	Scorecards(ctx context.Context) ([]catalog.ScorecardDefinition, error)
	History(ctx context.Context) ([]catalog.ScoreHistoryEntry, []catalog.RankHistoryEntry, error)
}

// FileSource reads catalog records from a directory tree:
//
//	<root>/catalog/     entity files (.yaml, .yml or .json, multi-document)
//	<root>/scorecards/  scorecard definition files
//	<root>/history/     score and rank history files
//
// Files that fail to decode are logged and skipped so one broken record
// cannot block a rebuild.
type FileSource struct {
	root string
}

// NewFileSource builds a source rooted at the given directory.
func NewFileSource(root string) *FileSource {
	return &FileSource{root: root}
}

func (s *FileSource) Entities(ctx context.Context) ([]catalog.Entity, error) {
	var entities []catalog.Entity
	err := s.eachDocument(ctx, filepath.Join(s.root, "catalog"), func(path string, doc []byte) {
		var e catalog.Entity
		if err := json.Unmarshal(doc, &e); err != nil {
			logger.Warn("[Ingest] Skipping entity record", "file", path, "error", err)
			return
		}
		entities = append(entities, e)
	})
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (s *FileSource) Scorecards(ctx context.Context) ([]catalog.ScorecardDefinition, error) {
	var cards []catalog.ScorecardDefinition
	err := s.eachDocument(ctx, filepath.Join(s.root, "scorecards"), func(path string, doc []byte) {
		var card catalog.ScorecardDefinition
		if err := json.Unmarshal(doc, &card); err != nil {
			logger.Warn("[Ingest] Skipping scorecard record", "file", path, "error", err)
			return
		}
		if card.Name == "" && card.ID == "" {
			logger.Warn("[Ingest] Skipping unnamed scorecard", "file", path)
			return
		}
		cards = append(cards, card)
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// historyFile is the on-disk shape of a history document.
type historyFile struct {
	ScoreHistory []catalog.ScoreHistoryEntry `json:"score_history"`
	RankHistory  []catalog.RankHistoryEntry  `json:"rank_history"`
}

func (s *FileSource) History(ctx context.Context) ([]catalog.ScoreHistoryEntry, []catalog.RankHistoryEntry, error) {
	var scores []catalog.ScoreHistoryEntry
	var ranks []catalog.RankHistoryEntry
	err := s.eachDocument(ctx, filepath.Join(s.root, "history"), func(path string, doc []byte) {
		var hf historyFile
		if err := json.Unmarshal(doc, &hf); err != nil {
			logger.Warn("[Ingest] Skipping history record", "file", path, "error", err)
			return
		}
		scores = append(scores, hf.ScoreHistory...)
		ranks = append(ranks, hf.RankHistory...)
	})
	if err != nil {
		return nil, nil, err
	}
	return scores, ranks, nil
}

// eachDocument walks a directory tree and hands every YAML document (or JSON
// file) to fn as JSON bytes. A missing directory is treated as empty.
func (s *FileSource) eachDocument(ctx context.Context, dir string, fn func(path string, doc []byte)) error {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		switch ext {
		case ".json":
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			fn(path, data)
		case ".yaml", ".yml":
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			docs, err := yamlDocumentsToJSON(data)
			if err != nil {
				logger.Warn("[Ingest] Skipping unreadable file", "file", path, "error", err)
				return nil
			}
			for _, doc := range docs {
				fn(path, doc)
			}
		}
		return nil
	})
}

// yamlDocumentsToJSON splits a (possibly multi-document) YAML stream and
// re-encodes each document as JSON, so the typed decoding can share the
// JSON struct tags.
func yamlDocumentsToJSON(data []byte) ([][]byte, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	var out [][]byte
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if doc == nil {
			continue
		}
		encoded, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, encoded)
	}
}

// StaticSource serves a fixed catalog, used by tests and embedded setups.
type StaticSource struct {
	Catalog catalog.Catalog
}

func (s *StaticSource) Entities(ctx context.Context) ([]catalog.Entity, error) {
	return s.Catalog.Entities, nil
}

func (s *StaticSource) Scorecards(ctx context.Context) ([]catalog.ScorecardDefinition, error) {
	return s.Catalog.Scorecards, nil
}

func (s *StaticSource) History(ctx context.Context) ([]catalog.ScoreHistoryEntry, []catalog.RankHistoryEntry, error) {
	return s.Catalog.ScoreHistory, s.Catalog.RankHistory, nil
}
