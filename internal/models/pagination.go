package models

// PostPage is one page of a post listing.
type PostPage struct {
	CurrentPage int     `json:"currentPage"`
	TotalPages  int     `json:"totalPages"`
	TotalCount  int     `json:"totalBlogs"`
	Posts       []*Post `json:"blogs"`
}
