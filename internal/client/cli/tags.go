package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewTagsCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags with their post counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.app.tags(cmd.Context())
		},
	}
}

func (a *App) tags(ctx context.Context) error {
	tags, err := a.api.ListTags(ctx)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		fmt.Fprintln(a.out, "no tags")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tPOSTS")
	for _, t := range tags {
		fmt.Fprintf(tw, "%s\t%d\n", t.Name, t.Count)
	}
	return tw.Flush()
}

func NewPruneTagsCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "prune-tags",
		Short: "Delete tags no post uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.app.pruneTags(cmd.Context())
		},
	}
}

func (a *App) pruneTags(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	n, err := a.api.PruneTags(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "removed %d unused tag(s)\n", n)
	return nil
}
