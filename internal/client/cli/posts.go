package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/philcifone/blog/internal/client/client"
	"github.com/philcifone/blog/internal/client/models"
	"github.com/philcifone/blog/internal/common"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid post id %q", s)
	}
	return id, nil
}

func NewListCommand(st *state) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List posts, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.app.list(cmd.Context(), offline)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "read from the local cache without contacting the server")

	return cmd
}

func (a *App) list(ctx context.Context, offline bool) error {
	if !offline {
		list, err := a.api.ListPosts(ctx)
		switch {
		case err == nil:
			if err := a.cache.Replace(ctx, list); err != nil {
				a.warnf("update cache: %v", err)
			}
			return printPostList(a.out, list)
		case errors.Is(err, client.ErrUnavailable):
			a.warnf("server unavailable: %v", err)
		default:
			return err
		}
	}

	a.offlineNotice(ctx)
	list, err := a.cache.Posts(ctx)
	if err != nil {
		return err
	}
	return printPostList(a.out, list)
}

func NewShowCommand(st *state) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return st.app.show(cmd.Context(), id, offline)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "read from the local cache without contacting the server")

	return cmd
}

func (a *App) show(ctx context.Context, id int64, offline bool) error {
	if !offline {
		p, err := a.api.GetPost(ctx, id)
		switch {
		case err == nil:
			if err := a.cache.Put(ctx, p); err != nil {
				a.warnf("update cache: %v", err)
			}
			return printPost(a.out, p)
		case errors.Is(err, client.ErrNotFound):
			_ = a.cache.Forget(ctx, id)
			return fmt.Errorf("post %d not found", id)
		case errors.Is(err, client.ErrUnavailable):
			a.warnf("server unavailable: %v", err)
		default:
			return err
		}
	}

	a.offlineNotice(ctx)
	p, err := a.cache.Post(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("post %d is not in the cache", id)
	}
	if err != nil {
		return err
	}
	return printPost(a.out, p)
}

// postFlags are shared by create and update.
type postFlags struct {
	title       string
	content     string
	contentFile string
	excerpt     string
	tags        string
	image       string
	createdAt   string
}

func (f *postFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.title, "title", "t", "", "post title")
	fs.StringVarP(&f.content, "content", "c", "", "markdown body")
	fs.StringVar(&f.contentFile, "content-file", "", "read the markdown body from a file")
	fs.StringVarP(&f.excerpt, "excerpt", "e", "", "short summary")
	fs.StringVar(&f.tags, "tags", "", "comma separated tags")
	fs.StringVarP(&f.image, "image", "i", "", "cover image to upload")
}

// body resolves the post content from --content, --content-file or, when
// prompt is set, interactive input.
func (a *App) body(f *postFlags, prompt bool) (string, error) {
	switch {
	case f.content != "" && f.contentFile != "":
		return "", errors.New("use either --content or --content-file")
	case f.contentFile != "":
		data, err := os.ReadFile(f.contentFile)
		if err != nil {
			return "", fmt.Errorf("read content: %w", err)
		}
		return string(data), nil
	case f.content != "" || !prompt:
		return f.content, nil
	}
	return GetMultiline(a.reader, "Content (markdown)", a.errOut)
}

func NewCreateCommand(st *state) *cobra.Command {
	f := &postFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new post",
		Long:  "Publish a new post. Title and content are prompted for when not given as flags.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.app.create(cmd.Context(), f)
		},
	}

	f.register(cmd.Flags())

	return cmd
}

func (a *App) create(ctx context.Context, f *postFlags) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	form := models.PostForm{Excerpt: f.excerpt, Tags: f.tags, ImageFile: f.image}

	var err error
	form.Title = f.title
	if form.Title == "" {
		if form.Title, err = GetSimpleText(a.reader, "Title", a.errOut); err != nil {
			return err
		}
	}
	if form.Content, err = a.body(f, true); err != nil {
		return err
	}

	id, err := a.api.CreatePost(ctx, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created post %d\n", id)
	return nil
}

func NewUpdateCommand(st *state) *cobra.Command {
	f := &postFlags{}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit an existing post",
		Long:  "Edit an existing post. Fields without a flag keep their current value; the image is only replaced when --image is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return st.app.update(cmd.Context(), id, f, cmd.Flags())
		},
	}

	f.register(cmd.Flags())
	cmd.Flags().StringVar(&f.createdAt, "created-at", "", "backdate the post (RFC 3339 or YYYY-MM-DD)")

	return cmd
}

// changed is satisfied by *pflag.FlagSet.
type changed interface {
	Changed(name string) bool
}

func (a *App) update(ctx context.Context, id int64, f *postFlags, flags changed) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	cur, err := a.api.GetPost(ctx, id)
	if errors.Is(err, client.ErrNotFound) {
		return fmt.Errorf("post %d not found", id)
	}
	if err != nil {
		return err
	}

	form := models.PostForm{
		Title:     cur.Title,
		Content:   cur.Content,
		Excerpt:   cur.Excerpt,
		Tags:      strings.Join(cur.Tags, ", "),
		ImageFile: f.image,
	}
	if flags.Changed("title") {
		form.Title = f.title
	}
	if flags.Changed("content") || flags.Changed("content-file") {
		if form.Content, err = a.body(f, false); err != nil {
			return err
		}
	}
	if flags.Changed("excerpt") {
		form.Excerpt = f.excerpt
	}
	if flags.Changed("tags") {
		form.Tags = f.tags
	}
	if f.createdAt != "" {
		if form.CreatedAt, err = parseDate(f.createdAt); err != nil {
			return err
		}
	}

	if _, err := a.api.UpdatePost(ctx, id, form); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "updated post %d\n", id)
	return nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want RFC 3339 or YYYY-MM-DD", s)
}

func NewDeleteCommand(st *state) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a post",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return st.app.delete(cmd.Context(), id, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func (a *App) delete(ctx context.Context, id int64, yes bool) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	if !yes {
		ok, err := Confirm(a.reader, fmt.Sprintf("Delete post %d?", id), a.errOut)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "aborted")
			return nil
		}
	}

	if err := a.api.DeletePost(ctx, id); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("post %d not found", id)
		}
		return err
	}
	if err := a.cache.Forget(ctx, id); err != nil {
		a.warnf("update cache: %v", err)
	}
	fmt.Fprintf(a.out, "deleted post %d\n", id)
	return nil
}
