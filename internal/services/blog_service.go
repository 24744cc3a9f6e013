package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"blogapi/internal/models"
	"blogapi/internal/repository"
)

// PageSize is the fixed number of posts per listing page.
const PageSize = 20

type BlogService struct {
	posts  repository.PostRepository
	images ImageStore
	now    func() time.Time
}

// NewBlogService builds the post service. images may be nil, in which case
// requests carrying an image fail.
func NewBlogService(posts repository.PostRepository, images ImageStore) *BlogService {
	return &BlogService{
		posts:  posts,
		images: images,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func notFoundUnlessUUID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, repository.ErrNotFound)
	}
	return nil
}

func (s *BlogService) Create(ctx context.Context, authorID string, req models.CreatePostRequest, image *ImageUpload) (*models.Post, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	category := models.Category(req.Category)
	if title == "" || content == "" || authorID == "" {
		return nil, fmt.Errorf("%w: title, content and author are required", ErrValidation)
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, req.Category)
	}

	now := s.now()
	post := &models.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Category:  category,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if image != nil {
		url, key, err := s.storeImage(ctx, image)
		if err != nil {
			return nil, err
		}
		post.ImageURL = &url
		post.ImageKey = &key
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if post.ImageKey != nil {
			s.releaseImage(ctx, *post.ImageKey)
		}
		return nil, err
	}
	return post, nil
}

func (s *BlogService) Get(ctx context.Context, id string) (*models.Post, error) {
	if err := notFoundUnlessUUID("post", id); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, id)
}

// Update applies the whitelisted fields of req. A new image replaces the old
// one, which is removed from storage once the row is updated.
func (s *BlogService) Update(ctx context.Context, id string, req models.UpdatePostRequest, image *ImageUpload) (*models.Post, error) {
	if err := notFoundUnlessUUID("post", id); err != nil {
		return nil, err
	}
	if req.Category != nil && !models.Category(*req.Category).Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, *req.Category)
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		return nil, fmt.Errorf("%w: content must not be empty", ErrValidation)
	}

	// Only the allow-listed attributes travel to the repository.
	update := models.UpdatePostRequest{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	}
	if image != nil {
		url, key, err := s.storeImage(ctx, image)
		if err != nil {
			return nil, err
		}
		update.ImageURL = &url
		update.ImageKey = &key
	}

	previousKey, err := s.posts.Update(ctx, id, &update)
	if err != nil {
		if update.ImageKey != nil {
			s.releaseImage(ctx, *update.ImageKey)
		}
		return nil, err
	}

	if update.ImageKey != nil && previousKey != nil && *previousKey != *update.ImageKey {
		s.releaseImage(ctx, *previousKey)
	}

	return s.posts.GetByID(ctx, id)
}

func (s *BlogService) Delete(ctx context.Context, id string) error {
	if err := notFoundUnlessUUID("post", id); err != nil {
		return err
	}
	imageKey, err := s.posts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if imageKey != nil {
		s.releaseImage(ctx, *imageKey)
	}
	return nil
}

// AddComment appends a comment. Identical text is never deduplicated.
func (s *BlogService) AddComment(ctx context.Context, postID, authorID, text string) (*models.Post, error) {
	if err := notFoundUnlessUUID("post", postID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.posts.AddComment(ctx, postID, comment); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, postID)
}

// AddLike adds userID to the post's like set; a second like by the same user
// fails with repository.ErrConflict.
func (s *BlogService) AddLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	if err := notFoundUnlessUUID("post", postID); err != nil {
		return nil, err
	}
	if err := s.posts.AddLike(ctx, postID, userID); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, postID)
}

// List returns one page of posts, optionally filtered by a case-insensitive
// substring of title, content or category. Pages past the end are empty.
func (s *BlogService) List(ctx context.Context, page int, search string) (*models.PostPage, error) {
	return s.listPage(ctx, page, repository.PostFilter{Search: strings.TrimSpace(search)})
}

// ListByAuthor pages through one author's posts and fails with
// repository.ErrNotFound when the author has none.
func (s *BlogService) ListByAuthor(ctx context.Context, authorID string, page int) (*models.PostPage, error) {
	if err := notFoundUnlessUUID("posts for author", authorID); err != nil {
		return nil, err
	}
	result, err := s.listPage(ctx, page, repository.PostFilter{AuthorID: authorID})
	if err != nil {
		return nil, err
	}
	if result.TotalCount == 0 {
		return nil, fmt.Errorf("posts for author %s: %w", authorID, repository.ErrNotFound)
	}
	return result, nil
}

func (s *BlogService) listPage(ctx context.Context, page int, filter repository.PostFilter) (*models.PostPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1", ErrValidation)
	}

	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := &models.PostPage{
		CurrentPage: page,
		TotalPages:  totalPages(total, PageSize),
		TotalCount:  total,
		Posts:       []*models.Post{},
	}

	offset := (page - 1) * PageSize
	if offset >= total {
		return result, nil
	}

	filter.Limit = PageSize
	filter.Offset = offset
	posts, err := s.posts.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if posts != nil {
		result.Posts = posts
	}
	return result, nil
}

func totalPages(total, size int) int {
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

func (s *BlogService) storeImage(ctx context.Context, image *ImageUpload) (url string, key string, err error) {
	if s.images == nil {
		return "", "", fmt.Errorf("%w: image storage is not configured", ErrInvalidImage)
	}
	contentType, err := ValidateImage(image)
	if err != nil {
		return "", "", err
	}

	key = "posts/" + uuid.NewString() + imageExtension(contentType)
	url, err = s.images.Upload(ctx, key, image.Body, contentType)
	if err != nil {
		return "", "", err
	}
	return url, key, nil
}

func (s *BlogService) releaseImage(ctx context.Context, key string) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		log.Printf("blog: failed to release image %s: %v", key, err)
	}
}
