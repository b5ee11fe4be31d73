// Package feed renders the newest posts as RSS 2.0, Atom 1.0 or JSON Feed 1.1.
package feed

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/feeds"

	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/server/models"
)

// Format names a feed serialization.
type Format string

const (
	RSS2  Format = "rss2"
	Atom1 Format = "atom1"
	JSON1 Format = "json1"
)

// ContentType is the media type served for the format.
func (f Format) ContentType() string {
	switch f {
	case RSS2:
		return "application/rss+xml; charset=utf-8"
	case Atom1:
		return "application/atom+xml; charset=utf-8"
	default:
		return "application/feed+json; charset=utf-8"
	}
}

// Source supplies the posts of the feed, newest first.
type Source interface {
	ListRecent(ctx context.Context, limit int) ([]*models.Post, error)
}

// Options describe the feed channel.
type Options struct {
	SiteURL     string
	Title       string
	Description string
	AuthorName  string
	AuthorEmail string
}

type Generator struct {
	source   Source
	opts     Options
	renderer *contentRenderer
}

func NewGenerator(source Source, opts Options) *Generator {
	opts.SiteURL = strings.TrimRight(opts.SiteURL, "/")
	return &Generator{
		source:   source,
		opts:     opts,
		renderer: newContentRenderer(opts.SiteURL),
	}
}

// Render builds the feed document for format from at most
// common.FeedItemLimit posts.
func (g *Generator) Render(ctx context.Context, format Format) (string, error) {
	posts, err := g.source.ListRecent(ctx, common.FeedItemLimit)
	if err != nil {
		return "", err
	}

	f, err := g.build(posts)
	if err != nil {
		return "", err
	}

	switch format {
	case RSS2:
		return toRSS(f, posts)
	case Atom1:
		return toAtom(f, posts)
	case JSON1:
		return toJSON(f, posts)
	}
	return "", fmt.Errorf("unknown feed format %q", format)
}

func (g *Generator) build(posts []*models.Post) (*feeds.Feed, error) {
	var author *feeds.Author
	if g.opts.AuthorName != "" || g.opts.AuthorEmail != "" {
		author = &feeds.Author{Name: g.opts.AuthorName, Email: g.opts.AuthorEmail}
	}

	f := &feeds.Feed{
		Title:       g.opts.Title,
		Link:        &feeds.Link{Href: g.opts.SiteURL},
		Description: g.opts.Description,
		Author:      author,
		Id:          g.opts.SiteURL,
	}

	for _, p := range posts {
		content, err := g.renderer.Render(p.Content)
		if err != nil {
			return nil, fmt.Errorf("render post %d: %w", p.ID, err)
		}

		link := g.opts.SiteURL + "/blog/" + strconv.FormatInt(p.ID, 10)
		item := &feeds.Item{
			Title:       p.Title,
			Link:        &feeds.Link{Href: link},
			Id:          link,
			Description: g.renderer.Describe(p.Excerpt, content),
			Content:     content,
			Author:      author,
			Created:     p.CreatedAt,
			Updated:     lastModified(p),
		}
		if p.ImagePath != "" {
			item.Enclosure = &feeds.Enclosure{
				Url:  g.opts.SiteURL + p.ImagePath,
				Type: imageType(p.ImagePath),
			}
		}
		f.Items = append(f.Items, item)

		// the newest edit dates the feed, so equal data renders equal output
		if item.Updated.After(f.Updated) {
			f.Updated = item.Updated
		}
		if item.Created.After(f.Created) {
			f.Created = item.Created
		}
	}

	return f, nil
}

func lastModified(p *models.Post) time.Time {
	if p.UpdatedAt.IsZero() {
		return p.CreatedAt
	}
	return p.UpdatedAt
}

func imageType(p string) string {
	if t := mime.TypeByExtension(path.Ext(p)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func toJSON(f *feeds.Feed, posts []*models.Post) (string, error) {
	doc := (&feeds.JSON{Feed: f}).JSONFeed()
	for i, item := range doc.Items {
		item.Tags = posts[i].Tags
		if enc := f.Items[i].Enclosure; enc != nil {
			item.Image = enc.Url
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
