package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"blogapi/internal/middleware"
	"blogapi/internal/models"
	"blogapi/internal/services"
)

// BlogService is the post workflow used by BlogHandler.
type BlogService interface {
	Create(ctx context.Context, authorID string, req models.CreatePostRequest, image *services.ImageUpload) (*models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, id string, req models.UpdatePostRequest, image *services.ImageUpload) (*models.Post, error)
	Delete(ctx context.Context, id string) error
	AddComment(ctx context.Context, postID, authorID, text string) (*models.Post, error)
	AddLike(ctx context.Context, postID, userID string) (*models.Post, error)
	List(ctx context.Context, page int, search string) (*models.PostPage, error)
	ListByAuthor(ctx context.Context, authorID string, page int) (*models.PostPage, error)
}

type BlogHandler struct {
	svc BlogService
	v   *validator.Validate
}

func NewBlogHandler(svc BlogService) *BlogHandler {
	return &BlogHandler{svc: svc, v: validator.New()}
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSONErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
	}
	return id, ok
}

// CreatePost handles POST /api/blog
// @Tags Blogs
// @Summary Create a post
// @Security BearerAuth
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param body body models.CreatePostRequest false "Post (JSON)"
// @Param title formData string false "Title"
// @Param content formData string false "Content"
// @Param category formData string false "Category" Enums(Technology, Lifestyle, Education, Health, Finance)
// @Param image formData file false "JPEG or PNG image, at most 20 MB"
// @Success 201 {object} models.Post
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/blog [post]
func (h *BlogHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	authorID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreatePostRequest
	var image *services.ImageUpload
	if isMultipart(r) {
		form, err := readPostForm(w, r)
		if err != nil {
			writeServiceError(w, "create post", err)
			return
		}
		defer form.Close()
		req.Title, _ = form.value("title")
		req.Content, _ = form.value("content")
		req.Category, _ = form.value("category")
		image = form.image
	} else if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, "create post", err)
		return
	}

	if err := h.v.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	post, err := h.svc.Create(r.Context(), authorID, req, image)
	if err != nil {
		writeServiceError(w, "create post", err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// ListPosts handles GET /api/blog
// @Tags Blogs
// @Summary List posts, newest first
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param search query string false "Case-insensitive match on title, content or category"
// @Success 200 {object} models.PostPage
// @Failure 400 {object} map[string]interface{}
// @Router /api/blog [get]
func (h *BlogHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeServiceError(w, "list posts", err)
		return
	}

	result, err := h.svc.List(r.Context(), page, r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListPostsByAuthor handles GET /api/blog/user/{userId}
// @Tags Blogs
// @Summary List one author's posts
// @Produce json
// @Param userId path string true "Author ID"
// @Param page query int false "Page number (default 1)"
// @Success 200 {object} models.PostPage
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/blog/user/{userId} [get]
func (h *BlogHandler) ListPostsByAuthor(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeServiceError(w, "list posts by author", err)
		return
	}

	result, err := h.svc.ListByAuthor(r.Context(), chi.URLParam(r, "userId"), page)
	if err != nil {
		writeServiceError(w, "list posts by author", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetPost handles GET /api/blog/{id}
// @Tags Blogs
// @Summary Get a post
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} map[string]interface{}
// @Router /api/blog/{id} [get]
func (h *BlogHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "get post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// UpdatePost handles PUT /api/blog/{id}
// @Tags Blogs
// @Summary Update a post
// @Description Only title, content, category and image can change.
// @Security BearerAuth
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Post ID"
// @Param body body models.UpdatePostRequest false "Fields to change (JSON)"
// @Param image formData file false "Replacement JPEG or PNG image"
// @Success 200 {object} models.Post
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/blog/{id} [put]
func (h *BlogHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req models.UpdatePostRequest
	var image *services.ImageUpload
	if isMultipart(r) {
		form, err := readPostForm(w, r)
		if err != nil {
			writeServiceError(w, "update post", err)
			return
		}
		defer form.Close()
		if v, ok := form.value("title"); ok {
			req.Title = &v
		}
		if v, ok := form.value("content"); ok {
			req.Content = &v
		}
		if v, ok := form.value("category"); ok {
			req.Category = &v
		}
		image = form.image
	} else if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, "update post", err)
		return
	}

	if err := h.v.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	post, err := h.svc.Update(r.Context(), id, req, image)
	if err != nil {
		writeServiceError(w, "update post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /api/blog/{id}
// @Tags Blogs
// @Summary Delete a post with its comments, likes and image
// @Security BearerAuth
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/blog/{id} [delete]
func (h *BlogHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "delete post", err)
		return
	}
	writeJSONMessage(w, http.StatusOK, "Blog deleted successfully")
}

// AddComment handles POST /api/blog/{id}/comments
// @Tags Blogs
// @Summary Comment on a post
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param body body models.AddCommentRequest true "Comment"
// @Success 201 {object} models.Post
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/blog/{id}/comments [post]
func (h *BlogHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.AddCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, "add comment", err)
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	post, err := h.svc.AddComment(r.Context(), chi.URLParam(r, "id"), userID, req.Text)
	if err != nil {
		writeServiceError(w, "add comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// AddLike handles POST /api/blog/{id}/like
// @Tags Blogs
// @Summary Like a post
// @Security BearerAuth
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/blog/{id}/like [post]
func (h *BlogHandler) AddLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	post, err := h.svc.AddLike(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeServiceError(w, "add like", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}
