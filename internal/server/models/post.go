// Package models defines server-side data models persisted in the database.
package models

import "time"

// Post is a blog article with the names of the tags attached to it, in the
// order they were linked.
type Post struct {
	ID        int64
	Title     string
	Content   string
	Excerpt   string
	// ImagePath is the public path of the cover image, empty when none.
	ImagePath string
	CreatedAt time.Time
	UpdatedAt time.Time
	Tags      []string
}

// TagCount is a tag name with the number of posts using it.
type TagCount struct {
	Name  string
	Count int
}
