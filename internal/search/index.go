// Package search keeps a bleve term index over fact keys and values.
package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"
)

const rebuildBatchSize = 500

// Index implements domain.SearchIndex on top of bleve.
type Index struct {
	index bleve.Index
}

// NewMemOnly creates an index that lives only in memory.
func NewMemOnly() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create in-memory index: %w", err)
	}
	return &Index{index: idx}, nil
}

// Open opens the index at path, creating it if it does not exist.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	return &Index{index: idx}, nil
}

func buildMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name

	keyword := bleve.NewKeywordFieldMapping()
	updated := bleve.NewNumericFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("key", text)
	doc.AddFieldMappingsAt("value", text)
	doc.AddFieldMappingsAt("category", keyword)
	doc.AddFieldMappingsAt("updated", updated)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

func document(f *domain.Fact) map[string]any {
	return map[string]any{
		"key":      f.Key,
		"value":    f.Value,
		"category": f.Category,
		"updated":  float64(f.Updated.UnixMilli()),
	}
}

func (i *Index) Index(f *domain.Fact) error {
	return i.index.Index(f.ID.String(), document(f))
}

func (i *Index) Delete(id uuid.UUID) error {
	return i.index.Delete(id.String())
}

// Search splits q on whitespace and requires every term to prefix-match a
// token of the key or the value. Hits are ordered by score, then by recency.
func (i *Index) Search(q string, limit int) ([]domain.SearchHit, error) {
	terms := strings.Fields(strings.ToLower(q))
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	conj := bleve.NewConjunctionQuery()
	for _, term := range terms {
		conj.AddQuery(termQuery(term))
	}

	req := bleve.NewSearchRequestOptions(conj, limit, 0, false)
	req.SortBy([]string{"-_score", "-updated"})

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		hits = append(hits, domain.SearchHit{ID: id, Score: h.Score})
	}
	return hits, nil
}

func termQuery(term string) query.Query {
	key := bleve.NewPrefixQuery(term)
	key.SetField("key")
	value := bleve.NewPrefixQuery(term)
	value.SetField("value")
	return bleve.NewDisjunctionQuery(key, value)
}

// Rebuild replaces the index contents with facts.
func (i *Index) Rebuild(facts []domain.Fact) error {
	count, err := i.index.DocCount()
	if err != nil {
		return err
	}
	if count > 0 {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
		res, err := i.index.Search(req)
		if err != nil {
			return fmt.Errorf("list indexed docs: %w", err)
		}
		batch := i.index.NewBatch()
		for _, h := range res.Hits {
			batch.Delete(h.ID)
		}
		if err := i.index.Batch(batch); err != nil {
			return fmt.Errorf("clear index: %w", err)
		}
	}

	batch := i.index.NewBatch()
	for n := range facts {
		if err := batch.Index(facts[n].ID.String(), document(&facts[n])); err != nil {
			return err
		}
		if batch.Size() >= rebuildBatchSize {
			if err := i.index.Batch(batch); err != nil {
				return err
			}
			batch = i.index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		return i.index.Batch(batch)
	}
	return nil
}

func (i *Index) DocCount() (uint64, error) {
	return i.index.DocCount()
}

func (i *Index) Close() error {
	return i.index.Close()
}
