package feed

import (
	"encoding/xml"
	"time"

	"github.com/gorilla/feeds"

	"github.com/philcifone/blog/internal/server/models"
)

// gorilla/feeds carries a single category string per item. The wrappers
// below shadow that field so every tag becomes its own category element;
// encoding/xml prefers the shallower field. The RSS enclosure is shadowed
// the same way.

type rssDocument struct {
	XMLName          xml.Name    `xml:"rss"`
	Version          string      `xml:"version,attr"`
	ContentNamespace string      `xml:"xmlns:content,attr"`
	Channel          *rssChannel `xml:"channel"`
}

type rssChannel struct {
	*feeds.RssFeed
	Items []*rssItem `xml:"item"`
}

type rssItem struct {
	*feeds.RssItem
	Categories []string      `xml:"category"`
	Enclosure  *rssEnclosure `xml:"enclosure,omitempty"`
}

// rssEnclosure reports length 0 since stored images are not measured.
type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type atomDocument struct {
	*feeds.AtomFeed
	Entries []*atomEntry `xml:"entry"`
}

type atomEntry struct {
	*feeds.AtomEntry
	Categories []atomCategory `xml:"category"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

func (d *rssDocument) FeedXml() interface{}  { return d }
func (d *atomDocument) FeedXml() interface{} { return d }

func toRSS(f *feeds.Feed, posts []*models.Post) (string, error) {
	channel := (&feeds.Rss{Feed: f}).RssFeed()

	doc := &rssDocument{
		Version:          "2.0",
		ContentNamespace: "http://purl.org/rss/1.0/modules/content/",
		Channel:          &rssChannel{RssFeed: channel},
	}
	for i, item := range channel.Items {
		ri := &rssItem{RssItem: item, Categories: posts[i].Tags}
		if enc := f.Items[i].Enclosure; enc != nil {
			ri.Enclosure = &rssEnclosure{URL: enc.Url, Length: "0", Type: enc.Type}
		}
		doc.Channel.Items = append(doc.Channel.Items, ri)
	}

	return feeds.ToXML(doc)
}

func toAtom(f *feeds.Feed, posts []*models.Post) (string, error) {
	atom := (&feeds.Atom{Feed: f}).AtomFeed()

	doc := &atomDocument{AtomFeed: atom}
	for i, entry := range atom.Entries {
		e := &atomEntry{AtomEntry: entry}
		// gorilla only emits <updated>; backdated posts need their own date
		e.Published = posts[i].CreatedAt.UTC().Format(time.RFC3339)
		for _, tag := range posts[i].Tags {
			e.Categories = append(e.Categories, atomCategory{Term: tag})
		}
		doc.Entries = append(doc.Entries, e)
	}

	return feeds.ToXML(doc)
}
