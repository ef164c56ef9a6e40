package api

import (
	"time"

	"github.com/linkshelf/linkshelf/internal/service"
	"github.com/linkshelf/linkshelf/internal/store"
)

// --- Link types ---

// CreateLinkRequest is the request body for POST /api/v1/{owner}/links.
type CreateLinkRequest struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}

// UpdateLinkRequest is the request body for PUT /api/v1/{owner}/links/{link_id}.
// Omitted fields keep their stored values.
type UpdateLinkRequest struct {
	URL         *string   `json:"url,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// LinkResponse is the JSON representation of a single link.
type LinkResponse struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func toLinkResponse(l *store.Link) LinkResponse {
	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}
	return LinkResponse{
		ID:          l.ID,
		URL:         l.URL,
		Title:       l.Title,
		Description: l.Description,
		Tags:        tags,
		UserID:      l.UserID,
		CreatedAt:   l.CreatedAt,
	}
}

func (req CreateLinkRequest) input() service.LinkInput {
	return service.LinkInput{URL: req.URL, Title: req.Title, Description: req.Description, Tags: req.Tags}
}

func (req UpdateLinkRequest) patch() service.LinkPatch {
	return service.LinkPatch{URL: req.URL, Title: req.Title, Description: req.Description, Tags: req.Tags}
}

// --- User types ---

// CreateUserRequest is the request body for POST /api/v1/users.
type CreateUserRequest struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// UpdateUserRequest is the request body for PUT /api/v1/users/{id}.
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
}

// UserResponse is the JSON representation of a user.
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func toUserResponse(u *store.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Username: u.Username}
}
