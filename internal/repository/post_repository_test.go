package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"blogapi/internal/models"
)

var postCols = []string{
	"id", "title", "content", "category", "image_url", "image_key",
	"author_id", "username", "created_at", "updated_at",
}

func TestPostListSearchesCaseInsensitively(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM posts p\s+LEFT JOIN users u ON u.id = p.author_id WHERE \(p.title ILIKE \$1 OR p.content ILIKE \$1 OR p.category ILIKE \$1\)\s+ORDER BY p.created_at DESC, p.id LIMIT \$2 OFFSET \$3`).
		WithArgs("%finance%", 20, 20).
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow("p1", "Budget", "Saving", "Finance", nil, nil, "u1", "alice", now, now))
	mock.ExpectQuery(`SELECT post_id, user_id\s+FROM post_likes`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "user_id"}).AddRow("p1", "u2"))
	mock.ExpectQuery(`FROM post_comments c`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "author_id", "username", "text", "created_at"}).
			AddRow("c1", "p1", "u3", "carol", "same", now).
			AddRow("c2", "p1", "u3", "carol", "same", now))

	posts, err := NewPostRepository(db).List(context.Background(), PostFilter{Search: "finance", Limit: 20, Offset: 20})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post got %d", len(posts))
	}
	p := posts[0]
	if p.Category != models.CategoryFinance || p.AuthorUsername != "alice" || p.ImageURL != nil {
		t.Fatalf("unexpected post %+v", p)
	}
	if len(p.Likes) != 1 || p.Likes[0] != "u2" {
		t.Fatalf("unexpected likes %v", p.Likes)
	}
	if len(p.Comments) != 2 || p.Comments[0].ID != "c1" || p.Comments[1].ID != "c2" {
		t.Fatalf("unexpected comments %+v", p.Comments)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostCountByAuthor(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM posts p WHERE p.author_id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(45))

	n, err := NewPostRepository(db).Count(context.Background(), PostFilter{AuthorID: "u1"})
	if err != nil || n != 45 {
		t.Fatalf("expected 45 got %d (%v)", n, err)
	}
}

func TestPostAddLike(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO post_likes .* ON CONFLICT \(post_id, user_id\) DO NOTHING`).
		WithArgs("p1", "u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO post_likes`).
		WithArgs("p1", "u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO post_likes`).
		WithArgs("p2", "u1", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "post_likes_post_id_fkey"})

	repo := NewPostRepository(db)
	ctx := context.Background()
	if err := repo.AddLike(ctx, "p1", "u1"); err != nil {
		t.Fatalf("first like: %v", err)
	}
	if err := repo.AddLike(ctx, "p1", "u1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("repeat like: expected ErrConflict got %v", err)
	}
	if err := repo.AddLike(ctx, "p2", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing post: expected ErrNotFound got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostAddCommentMissingPost(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO post_comments`).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "post_comments_post_id_fkey"})

	err = NewPostRepository(db).AddComment(context.Background(), "p1", &models.Comment{
		ID: "c1", AuthorID: "u1", Text: "hi", CreatedAt: time.Now().UTC(),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestPostUpdateReturnsPreviousImageKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	title := "New"
	url, key := "https://img.test/posts/new.png", "posts/new.png"
	mock.ExpectQuery(`UPDATE posts p\s+SET title = COALESCE\(\$1, p.title\)`).
		WithArgs("New", nil, nil, url, key, sqlmock.AnyArg(), "p1").
		WillReturnRows(sqlmock.NewRows([]string{"image_key"}).AddRow("posts/old.png"))
	mock.ExpectQuery(`UPDATE posts p`).
		WillReturnRows(sqlmock.NewRows([]string{"image_key"}))

	repo := NewPostRepository(db)
	prev, err := repo.Update(context.Background(), "p1", &models.UpdatePostRequest{
		Title: &title, ImageURL: &url, ImageKey: &key,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if prev == nil || *prev != "posts/old.png" {
		t.Fatalf("unexpected previous key %v", prev)
	}

	if _, err := repo.Update(context.Background(), "missing", &models.UpdatePostRequest{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestPostDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`DELETE FROM posts WHERE id = \$1 RETURNING image_key`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"image_key"}).AddRow(nil))
	mock.ExpectQuery(`DELETE FROM posts`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"image_key"}))

	repo := NewPostRepository(db)
	key, err := repo.Delete(context.Background(), "p1")
	if err != nil || key != nil {
		t.Fatalf("expected nil key got %v (%v)", key, err)
	}
	if _, err := repo.Delete(context.Background(), "p1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("unexpected escape %q", got)
	}
}
