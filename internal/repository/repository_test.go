package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/technofatty/technofatty/internal/mocks"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/publish"
	"github.com/technofatty/technofatty/internal/repository"
)

func TestMockBlogRepository_SlugUniqueness(t *testing.T) {
	repo := mocks.NewMockBlogRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, &models.BlogPost{ID: "p1", Slug: "hello"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	err := repo.Create(ctx, &models.BlogPost{ID: "p2", Slug: "hello"})
	if !errors.Is(err, repository.ErrSlugTaken) {
		t.Errorf("Expected ErrSlugTaken, got %v", err)
	}

	exists, _ := repo.SlugExists(ctx, "hello", "p1")
	if exists {
		t.Error("A row should not conflict with itself")
	}
	exists, _ = repo.SlugExists(ctx, "hello", "")
	if !exists {
		t.Error("Expected slug to exist")
	}
}

func TestMockBlogRepository_Visibility(t *testing.T) {
	repo := mocks.NewMockBlogRepository()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	posts := []*models.BlogPost{
		{ID: "visible", Slug: "visible", Status: models.StatusPublished, PublishedAt: &past},
		{ID: "future", Slug: "future", Status: models.StatusPublished, PublishedAt: &future},
		{ID: "draft", Slug: "draft", Status: models.StatusDraft, PublishedAt: &past},
		{ID: "archived", Slug: "archived", Status: models.StatusArchived, PublishedAt: &past},
	}
	for _, p := range posts {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	got, total, err := repo.List(ctx, publish.Public(now), repository.BlogFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(got) != 1 || got[0].ID != "visible" {
		t.Errorf("Expected only the visible post, got %d posts", total)
	}

	all, total, _ := repo.List(ctx, nil, repository.BlogFilter{})
	if total != 4 || len(all) != 4 {
		t.Errorf("Expected all 4 posts without a visibility filter, got %d", total)
	}
}

func TestMockKnowledgeRepository_PublishDue(t *testing.T) {
	repo := mocks.NewMockKnowledgeRepository()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Minute)
	later := now.Add(time.Minute)

	repo.CreateCategory(ctx, &models.KnowledgeCategory{ID: "c1", Slug: "guides", Status: models.StatusPublished})
	repo.CreateArticle(ctx, &models.KnowledgeArticle{ID: "a1", CategoryID: "c1", Slug: "due", Status: models.StatusDraft, PublishedAt: &due})
	repo.CreateArticle(ctx, &models.KnowledgeArticle{ID: "a2", CategoryID: "c1", Slug: "later", Status: models.StatusDraft, PublishedAt: &later})
	repo.CreateArticle(ctx, &models.KnowledgeArticle{ID: "a3", CategoryID: "c1", Slug: "undated", Status: models.StatusDraft})

	published, err := repo.PublishDue(ctx, now)
	if err != nil {
		t.Fatalf("PublishDue failed: %v", err)
	}
	if len(published) != 1 || published[0].ID != "a1" {
		t.Fatalf("Expected only a1 published, got %d", len(published))
	}
	if published[0].Category == nil || published[0].Category.Slug != "guides" {
		t.Error("Published article should carry its category")
	}

	again, _ := repo.PublishDue(ctx, now)
	if len(again) != 0 {
		t.Errorf("PublishDue should be idempotent, got %d", len(again))
	}
}

func TestMockUserRepository_Uniqueness(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, &models.User{ID: "u1", Username: "alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tests := []struct {
		name string
		user *models.User
	}{
		{"same username", &models.User{ID: "u2", Username: "alice", Email: "other@example.com"}},
		{"same email different case", &models.User{ID: "u3", Username: "bob", Email: "ALICE@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Create(ctx, tt.user); !errors.Is(err, repository.ErrDuplicate) {
				t.Errorf("Expected ErrDuplicate, got %v", err)
			}
		})
	}

	u, _ := repo.GetByEmail(ctx, "Alice@Example.com")
	if u == nil || u.ID != "u1" {
		t.Error("GetByEmail should be case-insensitive")
	}
	missing, err := repo.GetByUsername(ctx, "nobody")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for unknown user, got %v, %v", missing, err)
	}
}

func TestMockLeadRepository_StreamInCreationOrder(t *testing.T) {
	repo := mocks.NewMockLeadRepository()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	repo.Create(ctx, &models.NewsletterLead{ID: "2", Email: "b@example.com", CreatedAt: base.Add(time.Minute)})
	repo.Create(ctx, &models.NewsletterLead{ID: "1", Email: "a@example.com", CreatedAt: base})
	if err := repo.Create(ctx, &models.NewsletterLead{ID: "3", Email: "a@example.com"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}

	var order []string
	repo.StreamAll(ctx, func(l *models.NewsletterLead) error {
		order = append(order, l.ID)
		return nil
	})
	if len(order) != 2 || order[0] != "1" || order[1] != "2" {
		t.Errorf("Expected creation order [1 2], got %v", order)
	}
}

func TestMockModerationRepository_ClaimIsExclusive(t *testing.T) {
	repo := mocks.NewMockModerationRepository()
	ctx := context.Background()
	now := time.Now()

	repo.CreateReport(ctx, &models.ModerationReport{ID: "r1", Status: models.ReportStatusPending})

	first, _ := repo.ClaimNextReport(ctx, now)
	second, _ := repo.ClaimNextReport(ctx, now)
	if first == nil || first.ID != "r1" {
		t.Fatalf("Expected r1 claimed, got %+v", first)
	}
	if second != nil {
		t.Errorf("A claimed report must not be handed out twice, got %+v", second)
	}

	ok, _ := repo.ResolveReport(ctx, "r1", models.ReportStatusResolved, now)
	if !ok {
		t.Error("Expected claimed report to resolve")
	}
	ok, _ = repo.ResolveReport(ctx, "r1", models.ReportStatusDismissed, now)
	if ok {
		t.Error("Closed report should not change again")
	}
}
