package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"blogapi/internal/models"
)

// PostFilter narrows a listing. Zero values mean "no restriction".
type PostFilter struct {
	AuthorID string
	Search   string
	Limit    int
	Offset   int
}

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int, error)
	// Update applies the non-nil fields of req and returns the image key the
	// row held before the update.
	Update(ctx context.Context, id string, req *models.UpdatePostRequest) (*string, error)
	// Delete removes the post with its likes and comments and returns the
	// image key it held.
	Delete(ctx context.Context, id string) (*string, error)
	AddComment(ctx context.Context, postID string, comment *models.Comment) error
	AddLike(ctx context.Context, postID string, userID string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `
	p.id, p.title, p.content, p.category, p.image_url, p.image_key,
	p.author_id, COALESCE(u.username, ''), p.created_at, p.updated_at
`

func scanPost(row interface{ Scan(dest ...any) error }) (*models.Post, error) {
	var p models.Post
	var imageURL, imageKey sql.NullString
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.Category,
		&imageURL,
		&imageKey,
		&p.AuthorID,
		&p.AuthorUsername,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if imageURL.Valid {
		p.ImageURL = &imageURL.String
	}
	if imageKey.Valid {
		p.ImageKey = &imageKey.String
	}
	p.Likes = []string{}
	p.Comments = []models.Comment{}
	return &p, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (
			id, title, content, category, image_url, image_key, author_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		post.ID,
		post.Title,
		post.Content,
		post.Category,
		post.ImageURL,
		post.ImageKey,
		post.AuthorID,
		post.CreatedAt,
		post.UpdatedAt,
	).Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if code, constraint := pqCode(err); code == pqForeignKeyViolation && constraint == "posts_author_id_fkey" {
			return fmt.Errorf("author %s: %w", post.AuthorID, ErrNotFound)
		}
		return fmt.Errorf("create post: %w", err)
	}

	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get post: %w", err)
	}

	if err := r.loadEngagement(ctx, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// buildWhere renders the filter into a WHERE clause starting at placeholder argPos.
func buildWhere(filter PostFilter, argPos int) (string, []any, int) {
	var args []any
	var whereClauses []string

	if filter.AuthorID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("p.author_id = $%d", argPos))
		args = append(args, filter.AuthorID)
		argPos++
	}

	if filter.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(p.title ILIKE $%[1]d OR p.content ILIKE $%[1]d OR p.category ILIKE $%[1]d)", argPos))
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		argPos++
	}

	if len(whereClauses) == 0 {
		return "", args, argPos
	}
	return " WHERE " + strings.Join(whereClauses, " AND "), args, argPos
}

// escapeLike makes LIKE metacharacters in s match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	where, args, argPos := buildWhere(filter, 1)
	query := `SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN users u ON u.id = p.author_id` + where + `
		ORDER BY p.created_at DESC, p.id`

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
		argPos++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadEngagement(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int, error) {
	where, args, _ := buildWhere(filter, 1)
	query := `SELECT COUNT(*) FROM posts p` + where

	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

// loadEngagement fills Likes and Comments for posts with two batched queries.
func (r *postRepository) loadEngagement(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	byID := make(map[string]*models.Post, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	likeRows, err := r.db.QueryContext(ctx, `
		SELECT post_id, user_id
		FROM post_likes
		WHERE post_id = ANY($1::uuid[])
		ORDER BY created_at, user_id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load likes: %w", err)
	}
	defer likeRows.Close()

	for likeRows.Next() {
		var postID, userID string
		if err := likeRows.Scan(&postID, &userID); err != nil {
			return fmt.Errorf("scan like: %w", err)
		}
		if p, ok := byID[postID]; ok {
			p.Likes = append(p.Likes, userID)
		}
	}
	if err := likeRows.Err(); err != nil {
		return err
	}

	commentRows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.author_id, COALESCE(u.username, ''), c.text, c.created_at
		FROM post_comments c
		LEFT JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ANY($1::uuid[])
		ORDER BY c.seq
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load comments: %w", err)
	}
	defer commentRows.Close()

	for commentRows.Next() {
		var c models.Comment
		var postID string
		if err := commentRows.Scan(&c.ID, &postID, &c.AuthorID, &c.AuthorUsername, &c.Text, &c.CreatedAt); err != nil {
			return fmt.Errorf("scan comment: %w", err)
		}
		if p, ok := byID[postID]; ok {
			p.Comments = append(p.Comments, c)
		}
	}
	return commentRows.Err()
}

func (r *postRepository) Update(ctx context.Context, id string, req *models.UpdatePostRequest) (*string, error) {
	query := `
		UPDATE posts p
		SET title = COALESCE($1, p.title),
			content = COALESCE($2, p.content),
			category = COALESCE($3, p.category),
			image_url = COALESCE($4, p.image_url),
			image_key = COALESCE($5, p.image_key),
			updated_at = $6
		FROM (SELECT id, image_key FROM posts WHERE id = $7 FOR UPDATE) old
		WHERE p.id = old.id
		RETURNING old.image_key
	`

	var previousKey sql.NullString
	err := r.db.QueryRowContext(
		ctx,
		query,
		req.Title,
		req.Content,
		req.Category,
		req.ImageURL,
		req.ImageKey,
		time.Now().UTC(),
		id,
	).Scan(&previousKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	if !previousKey.Valid {
		return nil, nil
	}
	return &previousKey.String, nil
}

func (r *postRepository) Delete(ctx context.Context, id string) (*string, error) {
	var imageKey sql.NullString
	err := r.db.QueryRowContext(ctx, `DELETE FROM posts WHERE id = $1 RETURNING image_key`, id).Scan(&imageKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("delete post: %w", err)
	}

	if !imageKey.Valid {
		return nil, nil
	}
	return &imageKey.String, nil
}

func (r *postRepository) AddComment(ctx context.Context, postID string, comment *models.Comment) error {
	query := `
		INSERT INTO post_comments (id, post_id, author_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, comment.ID, postID, comment.AuthorID, comment.Text, comment.CreatedAt)
	if err != nil {
		if code, constraint := pqCode(err); code == pqForeignKeyViolation {
			if constraint == "post_comments_post_id_fkey" {
				return fmt.Errorf("post %s: %w", postID, ErrNotFound)
			}
			return fmt.Errorf("comment author %s: %w", comment.AuthorID, ErrNotFound)
		}
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// AddLike inserts (postID, userID) into the like set. The primary key on
// post_likes makes the membership check and the insert a single atomic step.
func (r *postRepository) AddLike(ctx context.Context, postID string, userID string) error {
	query := `
		INSERT INTO post_likes (post_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, postID, userID, time.Now().UTC())
	if err != nil {
		if code, constraint := pqCode(err); code == pqForeignKeyViolation {
			if constraint == "post_likes_post_id_fkey" {
				return fmt.Errorf("post %s: %w", postID, ErrNotFound)
			}
			return fmt.Errorf("like author %s: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("add like: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s already liked post %s: %w", userID, postID, ErrConflict)
	}
	return nil
}
