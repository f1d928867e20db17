package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/publish"
	"github.com/technofatty/technofatty/internal/repository"
)

// Verify interface compliance
var (
	_ repository.KnowledgeRepository    = (*MockKnowledgeRepository)(nil)
	_ repository.BlogRepository         = (*MockBlogRepository)(nil)
	_ repository.ToolRepository         = (*MockToolRepository)(nil)
	_ repository.CaseStudyRepository    = (*MockCaseStudyRepository)(nil)
	_ repository.ContactEventRepository = (*MockContactEventRepository)(nil)
	_ repository.LeadRepository         = (*MockLeadRepository)(nil)
	_ repository.UserRepository         = (*MockUserRepository)(nil)
	_ repository.ModerationRepository   = (*MockModerationRepository)(nil)
)

// NewRepositories returns a Repositories aggregate backed by fresh mocks.
func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		Knowledge:    NewMockKnowledgeRepository(),
		Blog:         NewMockBlogRepository(),
		Tool:         NewMockToolRepository(),
		CaseStudy:    NewMockCaseStudyRepository(),
		ContactEvent: NewMockContactEventRepository(),
		Lead:         NewMockLeadRepository(),
		User:         NewMockUserRepository(),
		Moderation:   NewMockModerationRepository(),
	}
}

func slugTaken(slug string) error {
	return fmt.Errorf("%w: %s", repository.ErrSlugTaken, slug)
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func window(n, limit, offset int) (int, int) {
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}

func newestFirst(a, b *time.Time, idA, idB string) bool {
	switch {
	case a == nil && b == nil:
		return idA < idB
	case a == nil:
		return false
	case b == nil:
		return true
	case a.Equal(*b):
		return idA < idB
	}
	return a.After(*b)
}

// MockKnowledgeRepository is a mock implementation of KnowledgeRepository
type MockKnowledgeRepository struct {
	Articles    map[string]*models.KnowledgeArticle
	Categories  map[string]*models.KnowledgeCategory
	Tags        map[string]*models.KnowledgeTag
	ArticleTags map[string][]string
	InsertError error
	// SlugConflicts fails the next n article inserts with ErrSlugTaken,
	// as a concurrent writer claiming the same slug would.
	SlugConflicts int
}

func NewMockKnowledgeRepository() *MockKnowledgeRepository {
	return &MockKnowledgeRepository{
		Articles:    make(map[string]*models.KnowledgeArticle),
		Categories:  make(map[string]*models.KnowledgeCategory),
		Tags:        make(map[string]*models.KnowledgeTag),
		ArticleTags: make(map[string][]string),
	}
}

func (m *MockKnowledgeRepository) hydrate(a *models.KnowledgeArticle) *models.KnowledgeArticle {
	cp := *a
	if c, ok := m.Categories[cp.CategoryID]; ok {
		cat := *c
		cp.Category = &cat
	}
	cp.Tags = nil
	for _, id := range m.ArticleTags[cp.ID] {
		if t, ok := m.Tags[id]; ok {
			cp.Tags = append(cp.Tags, *t)
		}
	}
	return &cp
}

func (m *MockKnowledgeRepository) CreateArticle(ctx context.Context, a *models.KnowledgeArticle) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	if m.SlugConflicts > 0 {
		m.SlugConflicts--
		return slugTaken(a.Slug)
	}
	if taken, _ := m.ArticleSlugExists(ctx, a.Slug, a.ID); taken {
		return slugTaken(a.Slug)
	}
	cp := *a
	m.Articles[a.ID] = &cp
	return nil
}

func (m *MockKnowledgeRepository) UpdateArticle(ctx context.Context, a *models.KnowledgeArticle) error {
	if _, ok := m.Articles[a.ID]; !ok {
		return fmt.Errorf("article %s not found", a.ID)
	}
	if taken, _ := m.ArticleSlugExists(ctx, a.Slug, a.ID); taken {
		return slugTaken(a.Slug)
	}
	cp := *a
	m.Articles[a.ID] = &cp
	return nil
}

func (m *MockKnowledgeRepository) GetArticleByID(ctx context.Context, id string) (*models.KnowledgeArticle, error) {
	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	return m.hydrate(a), nil
}

func (m *MockKnowledgeRepository) GetArticleBySlug(ctx context.Context, categorySlug, slug string) (*models.KnowledgeArticle, error) {
	for _, a := range m.Articles {
		h := m.hydrate(a)
		if h.Slug == slug && h.Category != nil && h.Category.Slug == categorySlug {
			return h, nil
		}
	}
	return nil, nil
}

func (m *MockKnowledgeRepository) ArticleSlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	for id, a := range m.Articles {
		if a.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockKnowledgeRepository) matches(a *models.KnowledgeArticle, f repository.KnowledgeFilter) bool {
	if f.Category != "" && (a.Category == nil || a.Category.Slug != f.Category) {
		return false
	}
	if f.Tag != "" {
		found := false
		for _, t := range a.Tags {
			found = found || t.Slug == f.Tag
		}
		if !found {
			return false
		}
	}
	if f.Query != "" {
		hit := contains(a.Title, f.Query) || contains(a.Blurb, f.Query)
		for _, t := range a.Tags {
			hit = hit || contains(t.Name, f.Query)
		}
		if !hit {
			return false
		}
	}
	if f.MaxTime > 0 && (a.ReadingTime == nil || *a.ReadingTime > f.MaxTime) {
		return false
	}
	if f.Subtype != "" && a.Subtype != f.Subtype {
		return false
	}
	return true
}

func (m *MockKnowledgeRepository) ListArticles(ctx context.Context, vis publish.Visibility, f repository.KnowledgeFilter) ([]*models.KnowledgeArticle, int, error) {
	var out []*models.KnowledgeArticle
	for _, a := range m.Articles {
		h := m.hydrate(a)
		if vis != nil && !vis.Visible(h.Status, h.PublishedAt) {
			continue
		}
		if m.matches(h, f) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].PublishedAt, out[j].PublishedAt, out[i].ID, out[j].ID)
	})
	start, end := window(len(out), f.Limit, f.Offset)
	return out[start:end], len(out), nil
}

func (m *MockKnowledgeRepository) RelatedArticles(ctx context.Context, vis publish.Visibility, article *models.KnowledgeArticle, limit int) ([]*models.KnowledgeArticle, error) {
	tags := make(map[string]bool, len(article.Tags))
	for _, t := range article.Tags {
		tags[t.ID] = true
	}
	var out []*models.KnowledgeArticle
	for _, a := range m.Articles {
		if a.ID == article.ID {
			continue
		}
		h := m.hydrate(a)
		if vis != nil && !vis.Visible(h.Status, h.PublishedAt) {
			continue
		}
		related := h.CategoryID == article.CategoryID
		for _, t := range h.Tags {
			related = related || tags[t.ID]
		}
		if related {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].PublishedAt, out[j].PublishedAt, out[i].ID, out[j].ID)
	})
	start, end := window(len(out), limit, 0)
	return out[start:end], nil
}

func (m *MockKnowledgeRepository) PublishDue(ctx context.Context, now time.Time) ([]*models.KnowledgeArticle, error) {
	var published []*models.KnowledgeArticle
	for _, a := range m.Articles {
		if a.Status == models.StatusDraft && a.PublishedAt != nil && !a.PublishedAt.After(now) {
			a.Status = models.StatusPublished
			a.UpdatedAt = now
			published = append(published, m.hydrate(a))
		}
	}
	return published, nil
}

func (m *MockKnowledgeRepository) CreateCategory(ctx context.Context, c *models.KnowledgeCategory) error {
	if taken, _ := m.CategorySlugExists(ctx, c.Slug); taken {
		return slugTaken(c.Slug)
	}
	cp := *c
	m.Categories[c.ID] = &cp
	return nil
}

func (m *MockKnowledgeRepository) GetCategoryByID(ctx context.Context, id string) (*models.KnowledgeCategory, error) {
	c, ok := m.Categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *MockKnowledgeRepository) GetCategoryBySlug(ctx context.Context, slug string) (*models.KnowledgeCategory, error) {
	for _, c := range m.Categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockKnowledgeRepository) CategorySlugExists(ctx context.Context, slug string) (bool, error) {
	c, _ := m.GetCategoryBySlug(ctx, slug)
	return c != nil, nil
}

func (m *MockKnowledgeRepository) ListCategories(ctx context.Context, publishedOnly bool) ([]*models.KnowledgeCategory, error) {
	var out []*models.KnowledgeCategory
	for _, c := range m.Categories {
		if publishedOnly && c.Status != models.StatusPublished {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *MockKnowledgeRepository) CreateTag(ctx context.Context, t *models.KnowledgeTag) error {
	if taken, _ := m.TagSlugExists(ctx, t.Slug); taken {
		return slugTaken(t.Slug)
	}
	cp := *t
	m.Tags[t.ID] = &cp
	return nil
}

func (m *MockKnowledgeRepository) GetTagBySlug(ctx context.Context, slug string) (*models.KnowledgeTag, error) {
	for _, t := range m.Tags {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockKnowledgeRepository) TagSlugExists(ctx context.Context, slug string) (bool, error) {
	t, _ := m.GetTagBySlug(ctx, slug)
	return t != nil, nil
}

func (m *MockKnowledgeRepository) SetArticleTags(ctx context.Context, articleID string, tagIDs []string) error {
	m.ArticleTags[articleID] = append([]string(nil), tagIDs...)
	return nil
}

// MockBlogRepository is a mock implementation of BlogRepository
type MockBlogRepository struct {
	Posts         map[string]*models.BlogPost
	InsertError   error
	SlugConflicts int
}

func NewMockBlogRepository() *MockBlogRepository {
	return &MockBlogRepository{Posts: make(map[string]*models.BlogPost)}
}

func (m *MockBlogRepository) Create(ctx context.Context, p *models.BlogPost) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	if m.SlugConflicts > 0 {
		m.SlugConflicts--
		return slugTaken(p.Slug)
	}
	if taken, _ := m.SlugExists(ctx, p.Slug, p.ID); taken {
		return slugTaken(p.Slug)
	}
	cp := *p
	m.Posts[p.ID] = &cp
	return nil
}

func (m *MockBlogRepository) Update(ctx context.Context, p *models.BlogPost) error {
	if _, ok := m.Posts[p.ID]; !ok {
		return fmt.Errorf("post %s not found", p.ID)
	}
	if taken, _ := m.SlugExists(ctx, p.Slug, p.ID); taken {
		return slugTaken(p.Slug)
	}
	cp := *p
	m.Posts[p.ID] = &cp
	return nil
}

func (m *MockBlogRepository) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	p, ok := m.Posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MockBlogRepository) GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	for _, p := range m.Posts {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockBlogRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	for id, p := range m.Posts {
		if p.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockBlogRepository) List(ctx context.Context, vis publish.Visibility, f repository.BlogFilter) ([]*models.BlogPost, int, error) {
	var out []*models.BlogPost
	for _, p := range m.Posts {
		if vis != nil && !vis.Visible(p.Status, p.PublishedAt) {
			continue
		}
		if f.Category != "" && p.CategorySlug != f.Category {
			continue
		}
		if f.Tag != "" {
			found := false
			for _, t := range p.Tags {
				found = found || t.Slug == f.Tag
			}
			if !found {
				continue
			}
		}
		if f.Query != "" {
			hit := contains(p.Title, f.Query) || contains(p.Excerpt, f.Query)
			for _, t := range p.Tags {
				hit = hit || contains(t.Title, f.Query)
			}
			if !hit {
				continue
			}
		}
		if f.Year > 0 && (p.PublishedAt == nil || p.PublishedAt.Year() != f.Year) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].PublishedAt, out[j].PublishedAt, out[i].ID, out[j].ID)
	})
	start, end := window(len(out), f.Limit, f.Offset)
	return out[start:end], len(out), nil
}

// MockToolRepository is a mock implementation of ToolRepository
type MockToolRepository struct {
	Tools       map[string]*models.Tool
	InsertError error
}

func NewMockToolRepository() *MockToolRepository {
	return &MockToolRepository{Tools: make(map[string]*models.Tool)}
}

func (m *MockToolRepository) Create(ctx context.Context, t *models.Tool) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	if taken, _ := m.SlugExists(ctx, t.Slug, t.ID); taken {
		return slugTaken(t.Slug)
	}
	cp := *t
	m.Tools[t.ID] = &cp
	return nil
}

func (m *MockToolRepository) Update(ctx context.Context, t *models.Tool) error {
	if taken, _ := m.SlugExists(ctx, t.Slug, t.ID); taken {
		return slugTaken(t.Slug)
	}
	cp := *t
	m.Tools[t.ID] = &cp
	return nil
}

func (m *MockToolRepository) GetByID(ctx context.Context, id string) (*models.Tool, error) {
	t, ok := m.Tools[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *MockToolRepository) GetBySlug(ctx context.Context, slug string) (*models.Tool, error) {
	for _, t := range m.Tools {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockToolRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	for id, t := range m.Tools {
		if t.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockToolRepository) ListPublished(ctx context.Context) ([]*models.Tool, error) {
	var out []*models.Tool
	for _, t := range m.Tools {
		if t.IsPublished {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// MockCaseStudyRepository is a mock implementation of CaseStudyRepository
type MockCaseStudyRepository struct {
	CaseStudies map[string]*models.CaseStudy
	InsertError error
}

func NewMockCaseStudyRepository() *MockCaseStudyRepository {
	return &MockCaseStudyRepository{CaseStudies: make(map[string]*models.CaseStudy)}
}

func (m *MockCaseStudyRepository) Create(ctx context.Context, c *models.CaseStudy) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	if taken, _ := m.SlugExists(ctx, c.Slug, c.ID); taken {
		return slugTaken(c.Slug)
	}
	cp := *c
	m.CaseStudies[c.ID] = &cp
	return nil
}

func (m *MockCaseStudyRepository) Update(ctx context.Context, c *models.CaseStudy) error {
	if taken, _ := m.SlugExists(ctx, c.Slug, c.ID); taken {
		return slugTaken(c.Slug)
	}
	cp := *c
	m.CaseStudies[c.ID] = &cp
	return nil
}

func (m *MockCaseStudyRepository) GetByID(ctx context.Context, id string) (*models.CaseStudy, error) {
	c, ok := m.CaseStudies[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *MockCaseStudyRepository) GetBySlug(ctx context.Context, slug string) (*models.CaseStudy, error) {
	for _, c := range m.CaseStudies {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockCaseStudyRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	for id, c := range m.CaseStudies {
		if c.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCaseStudyRepository) ListPublished(ctx context.Context) ([]*models.CaseStudy, error) {
	var out []*models.CaseStudy
	for _, c := range m.CaseStudies {
		if c.IsPublished {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// MockContactEventRepository records contact events in order
type MockContactEventRepository struct {
	Events      []*models.ContactEvent
	InsertError error
}

func NewMockContactEventRepository() *MockContactEventRepository {
	return &MockContactEventRepository{}
}

func (m *MockContactEventRepository) Create(ctx context.Context, e *models.ContactEvent) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.Events = append(m.Events, e)
	return nil
}

func (m *MockContactEventRepository) ListRecent(ctx context.Context, limit int) ([]*models.ContactEvent, error) {
	out := make([]*models.ContactEvent, 0, len(m.Events))
	for i := len(m.Events) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, m.Events[i])
	}
	return out, nil
}

// Types returns the recorded event types in order.
func (m *MockContactEventRepository) Types() []string {
	types := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.EventType)
	}
	return types
}

// MockLeadRepository is a mock implementation of LeadRepository keyed by email
type MockLeadRepository struct {
	Leads       map[string]*models.NewsletterLead
	InsertError error
}

func NewMockLeadRepository() *MockLeadRepository {
	return &MockLeadRepository{Leads: make(map[string]*models.NewsletterLead)}
}

func (m *MockLeadRepository) Create(ctx context.Context, l *models.NewsletterLead) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	if _, ok := m.Leads[l.Email]; ok {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, l.Email)
	}
	cp := *l
	m.Leads[l.Email] = &cp
	return nil
}

func (m *MockLeadRepository) Count(ctx context.Context) (int, error) {
	return len(m.Leads), nil
}

func (m *MockLeadRepository) StreamAll(ctx context.Context, callback func(*models.NewsletterLead) error) error {
	leads := make([]*models.NewsletterLead, 0, len(m.Leads))
	for _, l := range m.Leads {
		leads = append(leads, l)
	}
	sort.Slice(leads, func(i, j int) bool {
		if leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].Email < leads[j].Email
		}
		return leads[i].CreatedAt.Before(leads[j].CreatedAt)
	})
	for _, l := range leads {
		if err := callback(l); err != nil {
			return err
		}
	}
	return nil
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	Users       map[string]*models.User
	InsertError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[string]*models.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	if taken, _ := m.UsernameExists(ctx, user.Username); taken {
		return fmt.Errorf("%w: username", repository.ErrDuplicate)
	}
	if taken, _ := m.EmailExists(ctx, user.Email); taken {
		return fmt.Errorf("%w: email", repository.ErrDuplicate)
	}
	cp := *user
	m.Users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.Users[user.ID]; !ok {
		return fmt.Errorf("user %s not found", user.ID)
	}
	cp := *user
	m.Users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.Users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) find(match func(*models.User) bool) *models.User {
	for _, u := range m.Users {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username }), nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (m *MockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return m.find(func(u *models.User) bool { return strings.EqualFold(u.Username, username) }) != nil, nil
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return m.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) }) != nil, nil
}

// MockModerationRepository keeps reports and posts in insertion order
type MockModerationRepository struct {
	Reports     []*models.ModerationReport
	Posts       []*models.CommunityPost
	InsertError error
}

func NewMockModerationRepository() *MockModerationRepository {
	return &MockModerationRepository{}
}

func (m *MockModerationRepository) CreateReport(ctx context.Context, r *models.ModerationReport) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	cp := *r
	m.Reports = append(m.Reports, &cp)
	return nil
}

func (m *MockModerationRepository) ListReports(ctx context.Context, status models.ReportStatus, limit int) ([]*models.ModerationReport, error) {
	var out []*models.ModerationReport
	for _, r := range m.Reports {
		if status != "" && r.Status != status {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockModerationRepository) ClaimNextReport(ctx context.Context, now time.Time) (*models.ModerationReport, error) {
	for _, r := range m.Reports {
		if r.Status == models.ReportStatusPending {
			r.Status = models.ReportStatusReviewing
			claimed := now
			r.ClaimedAt = &claimed
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockModerationRepository) ResolveReport(ctx context.Context, id string, status models.ReportStatus, now time.Time) (bool, error) {
	for _, r := range m.Reports {
		if r.ID != id {
			continue
		}
		if r.Status != models.ReportStatusPending && r.Status != models.ReportStatusReviewing {
			return false, nil
		}
		r.Status = status
		resolved := now
		r.ResolvedAt = &resolved
		return true, nil
	}
	return false, nil
}

func (m *MockModerationRepository) CreatePost(ctx context.Context, p *models.CommunityPost) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	cp := *p
	m.Posts = append(m.Posts, &cp)
	return nil
}

func (m *MockModerationRepository) ListPosts(ctx context.Context, status models.PostStatus, limit int) ([]*models.CommunityPost, error) {
	var out []*models.CommunityPost
	for _, p := range m.Posts {
		if status != "" && p.Status != status {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockModerationRepository) ReviewPost(ctx context.Context, id string, status models.PostStatus, now time.Time) (bool, error) {
	for _, p := range m.Posts {
		if p.ID == id && p.Status == models.PostStatusPending {
			p.Status = status
			reviewed := now
			p.ReviewedAt = &reviewed
			return true, nil
		}
	}
	return false, nil
}
