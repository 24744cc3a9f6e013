package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"blogapi/internal/services"
)

// maxPostBody bounds a post request: the image plus room for the text fields.
const maxPostBody = services.MaxImageSize + 1<<20

const multipartMemory = 32 << 20

// maxJSONBody bounds every JSON request body.
const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", services.ErrValidation, maxJSONBody)
		}
		return fmt.Errorf("%w: invalid request body", services.ErrValidation)
	}
	return nil
}

// parsePage reads ?page=, defaulting to 1.
func parsePage(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("page"))
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("%w: page must be a positive integer", services.ErrValidation)
	}
	return page, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// postForm is a parsed multipart post request.
type postForm struct {
	values map[string][]string
	image  *services.ImageUpload
	file   multipart.File
}

func (f *postForm) value(name string) (string, bool) {
	vs, ok := f.values[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func (f *postForm) Close() {
	if f.file != nil {
		_ = f.file.Close()
	}
}

// readPostForm parses a multipart body with an optional "image" file part.
func readPostForm(w http.ResponseWriter, r *http.Request) (*postForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPostBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: image exceeds %d bytes", services.ErrInvalidImage, services.MaxImageSize)
		}
		return nil, fmt.Errorf("%w: failed to parse form", services.ErrValidation)
	}

	form := &postForm{values: r.MultipartForm.Value}
	fhs := r.MultipartForm.File["image"]
	if len(fhs) == 0 {
		return form, nil
	}

	header := fhs[0]
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open uploaded file", services.ErrValidation)
	}
	form.file = file
	form.image = &services.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	return form, nil
}
