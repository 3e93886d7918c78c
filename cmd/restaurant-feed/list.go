package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/Sternrassler/restaurant-feed/pkg/feed"
	"github.com/Sternrassler/restaurant-feed/pkg/loadable"
	"github.com/Sternrassler/restaurant-feed/pkg/pagination"
	"github.com/Sternrassler/restaurant-feed/pkg/restaurant"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"
)

type listOptions struct {
	pages  int
	search string
	match  string
	region string
	asJSON bool
}

func newListCmd() *cobra.Command {
	opts := listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List restaurants page by page",
		Long: `List loads the first page of restaurants for the configured region and
keeps loading the next page, as an infinite scroll would, until --pages
pages are loaded or the last page is reached.`,
		Example: `  restaurant-feed list --pages 3
  restaurant-feed list --search sushi --json
  restaurant-feed list --pages 5 --match "grill"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.pages < 1 {
				return fmt.Errorf("--pages must be >= 1 (got %d)", opts.pages)
			}
			return runList(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.pages, "pages", "p", 1, "number of pages to load")
	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "server-side search term")
	cmd.Flags().StringVarP(&opts.match, "match", "m", "", "fuzzy filter applied to the loaded names")
	cmd.Flags().StringVar(&opts.region, "region", "", "region id (overrides config)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func runList(ctx context.Context, out io.Writer, opts listOptions) error {
	logger := cliLogger()

	repo, closer, err := newRepository(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	filter := restaurant.Filter{RegionID: cfg.Feed.RegionID, Search: cfg.Feed.Search}
	if opts.region != "" {
		filter.RegionID = opts.region
	}
	if opts.search != "" {
		filter.Search = opts.search
	}

	sess := startSession(ctx)
	defer sess.Close()

	ctrl, err := feed.NewListController[restaurant.Restaurant, restaurant.Filter](repo, filter, feed.Options{
		Dispatcher: sess.loop,
		Name:       "cli-list",
		Limit:      cfg.Feed.PageSize,
		Context:    ctx,
	})
	if err != nil {
		return err
	}
	defer func() { _ = sess.do(context.Background(), ctrl.Close) }()

	onSnapshot, snapshots := watch[feed.ListSnapshot[restaurant.Restaurant]]()
	if err := sess.do(ctx, func() {
		ctrl.Subscribe(onSnapshot)
		ctrl.LoadFirstPage()
	}); err != nil {
		return err
	}

	snap, err := awaitSettled(ctx, snapshots, listSettled[restaurant.Restaurant])
	if err != nil {
		return err
	}
	if err := loadable.Err(snap.State); err != nil {
		return fmt.Errorf("load restaurants: %w", err)
	}

	for loaded := 1; loaded < opts.pages && snap.Cursor.HasNextPage(); loaded++ {
		before := len(snap.Items())
		triggered := false
		if err := sess.do(ctx, func() {
			items := snap.Items()
			ctrl.LoadNextPageIfNeeded(items[len(items)-1])
			triggered = ctrl.Snapshot().IsLoadingMore
		}); err != nil {
			return err
		}
		if !triggered {
			break
		}

		snap, err = awaitSettled(ctx, snapshots, listSettled[restaurant.Restaurant])
		if err != nil {
			return err
		}
		if len(snap.Items()) == before {
			logger.Warn().Int("page", snap.Cursor.CurrentPage).Msg("Stopped paging after a failed page")
			break
		}
	}

	items := snap.Items()
	if opts.match != "" {
		items = fuzzyMatch(items, opts.match)
	}

	logger.Debug().
		Int("items", len(items)).
		Int("page", snap.Cursor.CurrentPage).
		Int("total_pages", snap.Cursor.TotalPages).
		Msg("List loaded")

	if opts.asJSON {
		return writeListJSON(out, items, snap.Cursor)
	}
	return writeListTable(out, items, snap.Cursor)
}

// fuzzyMatch keeps the items whose name matches query, best match first.
func fuzzyMatch(items []restaurant.Restaurant, query string) []restaurant.Restaurant {
	names := make([]string, len(items))
	for i, r := range items {
		names[i] = r.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	out := make([]restaurant.Restaurant, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, items[rank.OriginalIndex])
	}
	return out
}

type listOutput struct {
	Items      []restaurant.Restaurant `json:"items"`
	Pagination pagination.Cursor       `json:"pagination"`
}

func writeListJSON(out io.Writer, items []restaurant.Restaurant, cursor pagination.Cursor) error {
	if items == nil {
		items = []restaurant.Restaurant{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(listOutput{Items: items, Pagination: cursor})
}

func writeListTable(out io.Writer, items []restaurant.Restaurant, cursor pagination.Cursor) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCUISINE\tPRICE\tRATING")
	for _, r := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Cuisine, r.PriceLevel.Symbol(), r.RatingWithCount())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%d restaurants, page %d of %d (%d total)\n",
		len(items), cursor.CurrentPage, cursor.TotalPages, cursor.TotalCount)
	return err
}
