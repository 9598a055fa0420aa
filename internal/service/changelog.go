package service

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/factstore/internal/domain"
)

const DefaultChangelogLimit = 50

type ChangelogQuery struct {
	Keyword string `json:"keyword"`
	Limit   int    `json:"limit"`
}

type ChangelogCounts struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Keys    int `json:"keys"`
}

type KeyHistory struct {
	Key     string               `json:"key"`
	Entries []domain.LedgerEntry `json:"entries"`
}

type Changelog struct {
	Entries []domain.LedgerEntry `json:"entries"`
	ByKey   []KeyHistory         `json:"by_key"`
	Counts  ChangelogCounts      `json:"counts"`
}

type ChangelogService struct {
	ledger domain.LedgerStore
}

func NewChangelogService(ls domain.LedgerStore) *ChangelogService {
	return &ChangelogService{ledger: ls}
}

// Query returns ledger entries newest-first, optionally restricted to keys
// containing the keyword, grouped by key in order of each key's latest change.
func (s *ChangelogService) Query(ctx context.Context, q ChangelogQuery) (*Changelog, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultChangelogLimit
	}
	entries, err := s.ledger.List(ctx, q.Keyword, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}

	cl := &Changelog{Entries: entries, ByKey: []KeyHistory{}}
	if cl.Entries == nil {
		cl.Entries = []domain.LedgerEntry{}
	}
	pos := make(map[string]int)
	for _, e := range entries {
		cl.Counts.Total++
		switch e.ChangeType {
		case domain.ChangeCreated:
			cl.Counts.Created++
		case domain.ChangeUpdated:
			cl.Counts.Updated++
		}
		i, ok := pos[e.Key]
		if !ok {
			i = len(cl.ByKey)
			pos[e.Key] = i
			cl.ByKey = append(cl.ByKey, KeyHistory{Key: e.Key})
		}
		cl.ByKey[i].Entries = append(cl.ByKey[i].Entries, e)
	}
	cl.Counts.Keys = len(cl.ByKey)
	return cl, nil
}
