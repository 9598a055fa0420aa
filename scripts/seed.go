// Seed script for creating demo data in a fact store.
// Uses the same DB_DIALECT / DB_PATH / DATABASE_URL / INDEX_PATH settings as the server.
// Run with: go run ./scripts/seed.go
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/Harshitk-cp/factstore/internal/app"
	"github.com/Harshitk-cp/factstore/internal/config"
	"github.com/Harshitk-cp/factstore/internal/domain"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	opts, err := app.OptionsFromEnv()
	if err != nil {
		log.Fatalf("Failed to load options: %v", err)
	}

	ctx := context.Background()

	a, err := app.Open(ctx, opts, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to open fact store: %v", err)
	}
	defer a.Close()

	fmt.Printf("Opened %s store at %s\n", opts.Dialect, opts.DSN)

	facts := []domain.Fact{
		{Category: "user", Key: "role", Value: "backend engineer working mostly in Go", Source: "profile", Confidence: 1.0, Tier: domain.TierPermanent},
		{Category: "user", Key: "editor", Value: "neovim with gopls", Source: "conversation-001", Confidence: 0.9},
		{Category: "preference", Key: "response.format", Value: "bullet points, under 500 words unless asked for detail", Source: "feedback", Confidence: 0.88},
		{Category: "preference", Key: "tools", Value: "open source only, never suggest paid tools", Source: "conversation-003", Confidence: 0.98, Tier: domain.TierCritical},
		{Category: "project", Key: "factstore/database", Value: "PostgreSQL in production, SQLite locally", Source: "conversation-004", Confidence: 0.92},
		{Category: "project", Key: "factstore/architecture", Value: "single binary with background maintenance workers", Source: "conversation-005", Confidence: 0.87},
		{Category: "task", Key: "current", Value: "wiring the changelog endpoint", Source: "session", Confidence: 0.8, Tier: domain.TierWorking, Scope: domain.ScopeConversation},
	}
	for i := range facts {
		res, err := a.Facts.Upsert(ctx, &facts[i])
		if err != nil {
			log.Printf("Warning: Failed to store %s: %v", facts[i].Ref(), err)
			continue
		}
		fmt.Printf("%s fact [%s]: %s\n", res.Outcome, res.Fact.Ref(), truncate(res.Fact.Value, 50))
	}

	links := []struct {
		from, to string
		relType  domain.RelationType
	}{
		{"project/factstore/database", "project/factstore/architecture", domain.RelationPartOf},
		{"project/factstore/architecture", "user/role", domain.RelationOwnedBy},
		{"task/current", "project/factstore/architecture", domain.RelationRelatedTo},
	}
	for _, l := range links {
		if _, _, err := a.Graph.Link(ctx, l.from, l.to, l.relType); err != nil {
			log.Printf("Warning: Failed to link %s -> %s: %v", l.from, l.to, err)
		}
	}
	fmt.Printf("Created %d relations\n", len(links))

	if err := a.Activity.UpsertProject(ctx, &domain.Project{Name: "factstore"}); err != nil {
		log.Printf("Warning: Failed to create project: %v", err)
	}
	for _, style := range []string{"focused", "focused", "rushed"} {
		if err := a.Activity.RecordSession(ctx, &domain.Session{Style: style}); err != nil {
			log.Printf("Warning: Failed to record session: %v", err)
		}
	}
	if err := a.Activity.RecordEvent(ctx, &domain.Event{EventType: "decision", Category: "storage", Message: "keep SQLite as the default dialect"}); err != nil {
		log.Printf("Warning: Failed to record event: %v", err)
	}
	fmt.Println("Recorded demo project, sessions and events")

	fmt.Println("\n=== Seed Complete ===")
	fmt.Println("\nTo protect the API, add to your .env:")
	fmt.Printf("API_KEY=%s\n", generateAPIKey())
	fmt.Println("\nTo query the store, use:")
	fmt.Println("curl 'http://localhost:8080/v1/facts/search?q=postgres'")
	fmt.Println("curl 'http://localhost:8080/v1/graph/walk?ref=user/role&depth=3'")
}

func generateAPIKey() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("Failed to generate API key: %v", err)
	}
	return "fs_" + base64.URLEncoding.EncodeToString(b)[:40]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
