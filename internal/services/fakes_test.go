package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"blogapi/internal/models"
	"blogapi/internal/repository"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	email map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}, email: map[string]string{}}
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.email[u.Email]; ok {
		return fmt.Errorf("user %s: %w", u.Email, repository.ErrConflict)
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.email[u.Email] = u.ID
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	id, ok := m.email[email]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	return m.GetByID(ctx, id)
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	u.PasswordHash = hash
	return nil
}

type memResets struct {
	mu     sync.Mutex
	tokens []*models.PasswordResetToken
}

func (m *memResets) Create(_ context.Context, t *models.PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tokens = append(m.tokens, &cp)
	return nil
}

func (m *memResets) Consume(_ context.Context, email, tokenHash string) (*models.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.tokens) - 1; i >= 0; i-- {
		t := m.tokens[i]
		if t.Email == email && t.TokenHash == tokenHash {
			m.tokens = append(m.tokens[:i], m.tokens[i+1:]...)
			return t, nil
		}
	}
	return nil, fmt.Errorf("reset token: %w", repository.ErrNotFound)
}

func (m *memResets) DeleteByEmail(_ context.Context, email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*models.PasswordResetToken
	var n int64
	for _, t := range m.tokens {
		if t.Email == email {
			n++
			continue
		}
		kept = append(kept, t)
	}
	m.tokens = kept
	return n, nil
}

func (m *memResets) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

type memPosts struct {
	mu    sync.Mutex
	posts map[string]*models.Post
}

func newMemPosts() *memPosts {
	return &memPosts{posts: map[string]*models.Post{}}
}

func clonePost(p *models.Post) *models.Post {
	cp := *p
	cp.Likes = append([]string{}, p.Likes...)
	cp.Comments = append([]models.Comment{}, p.Comments...)
	return &cp
}

func (m *memPosts) Create(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[p.ID] = clonePost(p)
	return nil
}

func (m *memPosts) GetByID(_ context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, repository.ErrNotFound)
	}
	return clonePost(p), nil
}

func (m *memPosts) matching(filter repository.PostFilter) []*models.Post {
	needle := strings.ToLower(filter.Search)
	var out []*models.Post
	for _, p := range m.posts {
		if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Content), needle) &&
			!strings.Contains(strings.ToLower(string(p.Category)), needle) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memPosts) List(_ context.Context, filter repository.PostFilter) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.matching(filter)
	if filter.Offset >= len(all) {
		return []*models.Post{}, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > len(all) {
		end = len(all)
	}
	out := make([]*models.Post, 0, end-filter.Offset)
	for _, p := range all[filter.Offset:end] {
		out = append(out, clonePost(p))
	}
	return out, nil
}

func (m *memPosts) Count(_ context.Context, filter repository.PostFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(filter)), nil
}

func (m *memPosts) Update(_ context.Context, id string, req *models.UpdatePostRequest) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, repository.ErrNotFound)
	}
	prev := p.ImageKey
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	if req.Category != nil {
		p.Category = models.Category(*req.Category)
	}
	if req.ImageKey != nil {
		p.ImageURL = req.ImageURL
		p.ImageKey = req.ImageKey
	}
	return prev, nil
}

func (m *memPosts) Delete(_ context.Context, id string) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, repository.ErrNotFound)
	}
	delete(m.posts, id)
	return p.ImageKey, nil
}

func (m *memPosts) AddComment(_ context.Context, postID string, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return fmt.Errorf("post %s: %w", postID, repository.ErrNotFound)
	}
	p.Comments = append(p.Comments, *c)
	return nil
}

func (m *memPosts) AddLike(_ context.Context, postID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return fmt.Errorf("post %s: %w", postID, repository.ErrNotFound)
	}
	for _, id := range p.Likes {
		if id == userID {
			return fmt.Errorf("like: %w", repository.ErrConflict)
		}
	}
	p.Likes = append(p.Likes, userID)
	return nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingMailer) messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message{}, r.sent...)
}

type memImages struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemImages() *memImages {
	return &memImages{objects: map[string][]byte{}}
}

func (m *memImages) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return "https://images.test/" + key, nil
}

func (m *memImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memImages) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}
