package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/simp-lee/hireline/internal/store"
)

func newDashboardCmd(opts *rootOptions) *cobra.Command {
	var (
		pageSize int
		watch    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Load every collection and print summary counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			con := opts.con
			if err := con.authenticated(cmd.Context()); err != nil {
				return err
			}
			if err := con.stores.Warm(cmd.Context(), pageSize); err != nil {
				return err
			}
			if err := printDashboard(cmd.OutOrStdout(), con.stores); err != nil {
				return err
			}
			if watch <= 0 {
				return nil
			}
			return watchDashboard(cmd.Context(), cmd.OutOrStdout(), con, watch)
		},
	}

	cmd.Flags().IntVar(&pageSize, "size", 20, "Page size fetched per collection")
	cmd.Flags().DurationVar(&watch, "watch", 0, "Refresh stale collections at this interval until interrupted")
	return cmd
}

// watchDashboard keeps the session's expiry check running and refreshes
// collections whose data went stale. It returns when ctx ends or the
// session is logged out.
func watchDashboard(ctx context.Context, out io.Writer, con *console, every time.Duration) error {
	if err := con.session.Start(); err != nil {
		return err
	}
	defer con.session.Stop()

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if !con.session.IsAuthenticated() {
				return errors.New("session ended")
			}
			n := refreshStale(ctx, con.stores, now)
			if n == 0 {
				continue
			}
			fmt.Fprintf(out, "\n-- refreshed %d collection(s) at %s --\n", n, now.Format(time.TimeOnly))
			if err := printDashboard(out, con.stores); err != nil {
				return err
			}
		}
	}
}

type staleCollection struct {
	name    string
	isStale func(time.Time) bool
	refresh func(context.Context) error
}

func collection[P any](name string, isStale func(time.Time) bool, refresh func(context.Context) (P, error)) staleCollection {
	return staleCollection{
		name:    name,
		isStale: isStale,
		refresh: func(ctx context.Context) error {
			_, err := refresh(ctx)
			return err
		},
	}
}

func refreshStale(ctx context.Context, s *store.Stores, now time.Time) int {
	all := []staleCollection{
		collection("companies", s.Companies.IsStale, s.Companies.Refresh),
		collection("jobs", s.Jobs.IsStale, s.Jobs.Refresh),
		collection("candidates", s.Candidates.IsStale, s.Candidates.Refresh),
		collection("applications", s.Applications.IsStale, s.Applications.Refresh),
		collection("users", s.Users.IsStale, s.Users.Refresh),
	}
	n := 0
	for _, c := range all {
		if !c.isStale(now) {
			continue
		}
		if err := c.refresh(ctx); err != nil {
			slog.WarnContext(ctx, "refresh failed", slog.String("collection", c.name), slog.Any("error", err))
			continue
		}
		n++
	}
	return n
}

func printDashboard(out io.Writer, s *store.Stores) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COLLECTION\tTOTAL\tLOADED")
	fmt.Fprintf(w, "companies\t%d\t%d\n", s.Companies.Snapshot().Pagination.TotalItems, s.Companies.Count())
	fmt.Fprintf(w, "jobs\t%d\t%d\n", s.Jobs.Snapshot().Pagination.TotalItems, s.Jobs.Count())
	fmt.Fprintf(w, "candidates\t%d\t%d\n", s.Candidates.Snapshot().Pagination.TotalItems, s.Candidates.Count())
	fmt.Fprintf(w, "applications\t%d\t%d\n", s.Applications.Snapshot().Pagination.TotalItems, s.Applications.Count())
	fmt.Fprintf(w, "users\t%d\t%d\n", s.Users.Snapshot().Pagination.TotalItems, s.Users.Count())
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	for status, n := range s.Jobs.CountByStatus() {
		fmt.Fprintf(out, "jobs %s: %d\n", status, n)
	}
	for status, n := range s.Applications.CountByStatus() {
		fmt.Fprintf(out, "applications %s: %d\n", status, n)
	}
	industries := s.Companies.CountByIndustry()
	names := make([]string, 0, len(industries))
	for name := range industries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "companies in %s: %d\n", name, industries[name])
	}
	if lo, hi, ok := s.Jobs.SalaryRange(); ok {
		fmt.Fprintf(out, "salary range: %d - %d\n", lo, hi)
	}
	return nil
}
