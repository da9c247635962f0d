// Package wordpress publishes campaign posts as WordPress drafts through the
// REST API using Application Password basic auth.
package wordpress

import (
	"errors"
	"fmt"
)

// Config is a WordPress site and the credentials to post to it
type Config struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validation is the outcome of a credential check
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Publish steps reported in RemoteError
const (
	StepUpload = "upload"
	StepCreate = "create"
)

// AuthError means WordPress rejected the credentials
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("wordpress authentication failed (%d): %s", e.Status, e.Message)
}

// RemoteError is any other non-2xx response
type RemoteError struct {
	Step    string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	switch e.Step {
	case StepUpload:
		return fmt.Sprintf("Image upload failed (%d): %s", e.Status, e.Message)
	case StepCreate:
		return fmt.Sprintf("Post creation failed (%d): %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("wordpress %s failed (%d): %s", e.Step, e.Status, e.Message)
	}
}

// IsAuth reports whether err is an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

type mediaResponse struct {
	ID int64 `json:"id"`
}

type createPostRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	FeaturedMedia int64  `json:"featured_media"`
}

type createPostResponse struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
