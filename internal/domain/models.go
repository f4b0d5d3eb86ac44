package domain

import (
	"encoding/json"
	"strings"
)

// Domain contains the blog resources exchanged with the API server.

// Role is the closed set of user roles known to this client.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
	// RoleUnknown is assigned when the server sends a role this client does not recognise.
	RoleUnknown Role = "UNKNOWN"
)

// ParseRole maps a wire value onto a known Role, falling back to RoleUnknown.
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser
	case RoleAdmin:
		return RoleAdmin
	case RoleModerator:
		return RoleModerator
	default:
		return RoleUnknown
	}
}

// Known reports whether r is one of the roles the server is documented to send.
func (r Role) Known() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleModerator
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ParseRole(raw)
	return nil
}

type User struct {
	ID          int64      `json:"id" yaml:"id" validate:"required"`
	Username    string     `json:"username" yaml:"username" validate:"required"`
	Email       string     `json:"email" yaml:"email"`
	Password    string     `json:"password,omitempty" yaml:"-"`
	FirstName   string     `json:"firstName" yaml:"first_name"`
	LastName    string     `json:"lastName" yaml:"last_name"`
	Bio         *string    `json:"bio,omitempty" yaml:"bio,omitempty"`
	AvatarURL   *string    `json:"avatarUrl,omitempty" yaml:"avatar_url,omitempty"`
	DateOfBirth *string    `json:"dateOfBirth,omitempty" yaml:"date_of_birth,omitempty"`
	Role        Role       `json:"role" yaml:"role" validate:"required"`
	IsActive    bool       `json:"isActive" yaml:"is_active"`
	LastLogin   *Timestamp `json:"lastLogin,omitempty" yaml:"last_login,omitempty"`
	CreatedAt   Timestamp  `json:"createdAt" yaml:"created_at" validate:"required"`
	UpdatedAt   Timestamp  `json:"updatedAt" yaml:"updated_at" validate:"required"`
}

// Credentials are sent once per login call and never stored.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegistrationRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AuthorSummary is the read-only projection of a user embedded in blogs and comments.
type AuthorSummary struct {
	Username  string  `json:"username" yaml:"username" validate:"required"`
	AvatarURL *string `json:"avatarUrl,omitempty" yaml:"avatar_url,omitempty"`
}

type Tag struct {
	ID     int64  `json:"id" yaml:"id" validate:"required"`
	Name   string `json:"name" yaml:"name" validate:"required"`
	BlogID int64  `json:"blogId" yaml:"blog_id" validate:"required"`
}

type Blog struct {
	ID        int64         `json:"id" yaml:"id" validate:"required"`
	Title     string        `json:"title" yaml:"title"`
	Content   string        `json:"content" yaml:"content"`
	AuthorID  int64         `json:"authorId" yaml:"author_id" validate:"required"`
	Author    AuthorSummary `json:"author" yaml:"author"`
	Tags      []Tag         `json:"tags" yaml:"tags" validate:"dive"`
	CreatedAt Timestamp     `json:"createdAt" yaml:"created_at" validate:"required"`
	UpdatedAt Timestamp     `json:"updatedAt" yaml:"updated_at" validate:"required"`
}

// CreateBlogRequest is the write shape for a blog: no id, author or timestamps.
type CreateBlogRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type Comment struct {
	ID        int64         `json:"id" yaml:"id" validate:"required"`
	Content   string        `json:"content" yaml:"content"`
	AuthorID  int64         `json:"authorId" yaml:"author_id" validate:"required"`
	BlogID    int64         `json:"blogId" yaml:"blog_id" validate:"required"`
	CreatedAt Timestamp     `json:"createdAt" yaml:"created_at" validate:"required"`
	UpdatedAt Timestamp     `json:"updatedAt" yaml:"updated_at" validate:"required"`
	Author    AuthorSummary `json:"author" yaml:"author"`
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}
