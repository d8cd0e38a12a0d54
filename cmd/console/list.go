package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/store"
)

type listOptions struct {
	page      int
	size      int
	sortBy    string
	direction string
	filters   map[string]string
	search    string
}

func (o listOptions) params() store.FetchParams {
	return store.FetchParams{
		Page:          o.page,
		PageSize:      o.size,
		SortBy:        o.sortBy,
		SortDirection: o.direction,
		Filters:       o.filters,
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	lo := listOptions{}

	cmd := &cobra.Command{
		Use:       "list <companies|jobs|active-jobs|candidates|applications|users>",
		Short:     "Fetch one page of a collection",
		Long: "Fetch one page of a collection. jobs and active-jobs are public; the others need a login,\n" +
			"and users needs an admin account (any other role is signed out by the backend's 403).",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"companies", "jobs", "active-jobs", "candidates", "applications", "users"},
		RunE: func(cmd *cobra.Command, args []string) error {
			con := opts.con
			ctx := cmd.Context()
			if args[0] != "jobs" && args[0] != "active-jobs" {
				if err := con.authenticated(ctx); err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			var err error
			switch args[0] {
			case "companies":
				err = printPage(ctx, w, con.stores.Companies.Engine, lo, "ID\tNAME\tINDUSTRY\tLOCATION\tCREATED",
					func(c domain.Company) string {
						return fmt.Sprintf("%d\t%s\t%s\t%s\t%s", c.ID, c.Name, c.Industry, c.Location, ago(c.CreatedAt))
					})
			case "jobs":
				err = printPage(ctx, w, con.stores.Jobs.Engine, lo, "ID\tTITLE\tLOCATION\tTYPE\tSTATUS\tCREATED", jobRow)
			case "active-jobs":
				var jobs []domain.Job
				if jobs, err = con.stores.Jobs.FetchActive(ctx); err == nil {
					fmt.Fprintln(w, "ID\tTITLE\tLOCATION\tTYPE\tSTATUS\tCREATED")
					for _, j := range jobs {
						fmt.Fprintln(w, jobRow(j))
					}
				}
			case "candidates":
				err = printPage(ctx, w, con.stores.Candidates.Engine, lo, "ID\tNAME\tEMAIL\tLOCATION\tSKILLS",
					func(c domain.Candidate) string {
						return fmt.Sprintf("%d\t%s %s\t%s\t%s\t%s", c.ID, c.FirstName, c.LastName, c.Email, c.Location, strings.Join(c.Skills, ", "))
					})
			case "applications":
				err = printPage(ctx, w, con.stores.Applications.Engine, lo, "ID\tJOB\tAPPLICANT\tEMAIL\tSTATUS\tAPPLIED",
					func(a domain.Application) string {
						return fmt.Sprintf("%d\t%d\t%s %s\t%s\t%s\t%s", a.ID, a.JobID, a.FirstName, a.LastName, a.Email, a.Status, ago(a.CreatedAt))
					})
			case "users":
				err = printPage(ctx, w, con.stores.Users.Engine, lo, "ID\tNAME\tEMAIL\tROLE",
					func(u domain.User) string {
						return fmt.Sprintf("%d\t%s\t%s\t%s", u.ID, u.Name, u.Email, u.Role)
					})
			default:
				return fmt.Errorf("unknown collection %q", args[0])
			}
			if err != nil {
				return err
			}
			return w.Flush()
		},
	}

	f := cmd.Flags()
	f.IntVar(&lo.page, "page", 0, "Zero-based page number")
	f.IntVar(&lo.size, "size", store.DefaultPageSize, "Page size")
	f.StringVar(&lo.sortBy, "sort", store.DefaultSortBy, "Sort field")
	f.StringVar(&lo.direction, "dir", domain.SortDesc, "Sort direction (asc|desc)")
	f.StringToStringVar(&lo.filters, "filter", nil, "Filters as key=value; ALL or empty means no filter")
	f.StringVar(&lo.search, "search", "", "Narrow the fetched page by a case-insensitive term")
	return cmd
}

func printPage[T domain.Resource](ctx context.Context, w io.Writer, e *store.Engine[T], lo listOptions, header string, row func(T) string) error {
	page, err := e.FetchCollection(ctx, lo.params())
	if err != nil {
		return err
	}
	items := page.Content
	if lo.search != "" {
		items = e.Search(lo.search)
	}
	fmt.Fprintln(w, header)
	for _, item := range items {
		fmt.Fprintln(w, row(item))
	}
	p := e.Snapshot().Pagination
	fmt.Fprintf(w, "page %d of %d, %d total\n", p.CurrentPage+1, max(p.TotalPages, 1), p.TotalItems)
	return nil
}

func jobRow(j domain.Job) string {
	return fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%s", j.ID, j.Title, j.Location, j.EmploymentType, j.Status, ago(j.CreatedAt))
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
