package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Sternrassler/restaurant-feed/pkg/feed"
	"github.com/Sternrassler/restaurant-feed/pkg/loadable"
	"github.com/Sternrassler/restaurant-feed/pkg/restaurant"
	"github.com/spf13/cobra"
)

type showOptions struct {
	refresh bool
	asJSON  bool
}

func newShowCmd() *cobra.Command {
	opts := showOptions{}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one restaurant's details",
		Example: `  restaurant-feed show 12345
  restaurant-feed show 12345 --refresh --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "refresh the details once after loading them")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON")
	return cmd
}

func runShow(ctx context.Context, out io.Writer, id string, opts showOptions) error {
	repo, closer, err := newRepository(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	sess := startSession(ctx)
	defer sess.Close()

	ctrl, err := feed.NewDetailController[restaurant.Details](repo, feed.Options{
		Dispatcher: sess.loop,
		Name:       "cli-detail",
		Context:    ctx,
	})
	if err != nil {
		return err
	}
	defer func() { _ = sess.do(context.Background(), ctrl.Close) }()

	onSnapshot, snapshots := watch[feed.DetailSnapshot[restaurant.Details]]()
	if err := sess.do(ctx, func() {
		ctrl.Subscribe(onSnapshot)
		ctrl.LoadDetails(id)
	}); err != nil {
		return err
	}

	snap, err := awaitSettled(ctx, snapshots, detailSettled[restaurant.Details])
	if err != nil {
		return err
	}

	if opts.refresh && loadable.KindOf(snap.State) == loadable.KindLoaded {
		if err := sess.do(ctx, func() { ctrl.Refresh(id) }); err != nil {
			return err
		}
		if snap, err = awaitSettled(ctx, snapshots, detailSettled[restaurant.Details]); err != nil {
			return err
		}
	}

	details, ok := loadable.Value(snap.State)
	if !ok {
		err := loadable.Err(snap.State)
		if errors.Is(err, restaurant.ErrNotFound) {
			return fmt.Errorf("restaurant %q not found", id)
		}
		return fmt.Errorf("load restaurant %q: %w", id, err)
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(details)
	}
	return writeDetails(out, details)
}

func writeDetails(out io.Writer, d restaurant.Details) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%s)\n", d.Name, d.ID)
	fmt.Fprintf(&b, "  %s · %s · %s\n", d.Cuisine, d.PriceLevel.Symbol(), d.RatingWithCount())
	if d.EstablishmentType != "" {
		fmt.Fprintf(&b, "  Type:     %s\n", d.EstablishmentType)
	}
	if d.Neighborhood != "" {
		fmt.Fprintf(&b, "  Area:     %s\n", d.Neighborhood)
	}
	if addr := d.Address.Full(); addr != "" {
		fmt.Fprintf(&b, "  Address:  %s\n", addr)
	}
	if d.Phone != "" {
		fmt.Fprintf(&b, "  Phone:    %s\n", d.Phone)
	}
	if d.MenuURL != "" {
		fmt.Fprintf(&b, "  Menu:     %s\n", d.MenuURL)
	}
	if len(d.Labels) > 0 {
		labels := make([]string, len(d.Labels))
		for i, l := range d.Labels {
			labels[i] = string(l)
		}
		fmt.Fprintf(&b, "  Labels:   %s\n", strings.Join(labels, ", "))
	}
	if d.Notice != "" {
		fmt.Fprintf(&b, "\n  Notice: %s\n", d.Notice)
	}
	if d.Description != "" {
		fmt.Fprintf(&b, "\n  %s\n", d.Description)
	}

	if hours := d.OperatingHours.Daily(); len(hours) > 0 {
		b.WriteString("\n  Hours:\n")
		for day := time.Sunday; day <= time.Saturday; day++ {
			if r, ok := hours[day]; ok {
				fmt.Fprintf(&b, "    %-9s %s\n", day, r)
			}
		}
	}

	_, err := io.WriteString(out, b.String())
	return err
}
