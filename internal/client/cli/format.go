package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/philcifone/blog/internal/client/models"
)

const titleWidth = 48

func printPostList(w io.Writer, list []models.Post) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no posts")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTITLE\tTAGS")
	for _, p := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.CreatedAt.Local().Format(time.DateOnly), truncate(p.Title, titleWidth), strings.Join(p.Tags, ", "))
	}
	return tw.Flush()
}

func printPost(w io.Writer, p *models.Post) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "id:      %d\n", p.ID)
	fmt.Fprintf(&b, "created: %s\n", p.CreatedAt.Local().Format(time.DateTime))
	if !p.UpdatedAt.IsZero() && !p.UpdatedAt.Equal(p.CreatedAt) {
		fmt.Fprintf(&b, "updated: %s\n", p.UpdatedAt.Local().Format(time.DateTime))
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "tags:    %s\n", strings.Join(p.Tags, ", "))
	}
	if p.ImagePath != nil {
		fmt.Fprintf(&b, "image:   %s\n", *p.ImagePath)
	}
	if p.Excerpt != "" {
		fmt.Fprintf(&b, "\n> %s\n", p.Excerpt)
	}
	fmt.Fprintf(&b, "\n%s\n", strings.TrimRight(p.Content, "\n"))

	_, err := io.WriteString(w, b.String())
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
