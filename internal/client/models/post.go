// Package models holds the client-side view of blog resources as the API
// serializes them.
package models

import "time"

type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	ImagePath *string   `json:"image_path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Tags      []string  `json:"tags"`
}

type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PostForm is what the admin submits for create and update.
type PostForm struct {
	Title   string
	Content string
	Excerpt string
	// Tags is the raw comma separated list; the server normalizes it.
	Tags string
	// CreatedAt, when non-zero, backdates an existing post.
	CreatedAt time.Time
	// ImageFile is a local path uploaded as the cover image.
	ImageFile string
}
