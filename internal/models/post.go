package models

import "time"

type Category string

const (
	CategoryTechnology Category = "Technology"
	CategoryLifestyle  Category = "Lifestyle"
	CategoryEducation  Category = "Education"
	CategoryHealth     Category = "Health"
	CategoryFinance    Category = "Finance"
)

var Categories = []Category{
	CategoryTechnology,
	CategoryLifestyle,
	CategoryEducation,
	CategoryHealth,
	CategoryFinance,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Post struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Category       Category  `json:"category"`
	ImageURL       *string   `json:"image,omitempty"`
	ImageKey       *string   `json:"-"`
	AuthorID       string    `json:"authorId"`
	AuthorUsername string    `json:"authorUsername,omitempty"`
	Likes          []string  `json:"likes"`
	Comments       []Comment `json:"comments"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Comment struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"authorId"`
	AuthorUsername string    `json:"authorUsername,omitempty"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

type CreatePostRequest struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	Category string `json:"category" validate:"required,oneof=Technology Lifestyle Education Health Finance"`
}

// UpdatePostRequest lists every attribute a client may change. Nil fields are
// left untouched.
type UpdatePostRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,min=1"`
	Content  *string `json:"content,omitempty" validate:"omitempty,min=1"`
	Category *string `json:"category,omitempty" validate:"omitempty,oneof=Technology Lifestyle Education Health Finance"`
	ImageURL *string `json:"-"`
	ImageKey *string `json:"-"`
}

type AddCommentRequest struct {
	Text string `json:"text" validate:"required"`
}
