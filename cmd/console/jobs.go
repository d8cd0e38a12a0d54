package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/store"
)

// maxScanPages bounds how far loadItem pages looking for a record.
const maxScanPages = 50

func newToggleJobCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-job <id>",
		Short: "Flip a job between ACTIVE and CLOSED",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			con := opts.con
			if err := con.authenticated(cmd.Context()); err != nil {
				return err
			}
			if err := loadItem(cmd.Context(), con.stores.Jobs.Engine, id); err != nil {
				return err
			}
			job, err := con.stores.Jobs.ToggleStatus(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %d %q is now %s\n", job.ID, job.Title, job.Status)
			return nil
		},
	}
}

func newSetStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <application-id> <PENDING|REVIEWED|INTERVIEW|REJECTED|HIRED>",
		Short: "Move an application through review",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := domain.ParseApplicationStatus(args[1])
			if err != nil {
				return err
			}
			con := opts.con
			if err := con.authenticated(cmd.Context()); err != nil {
				return err
			}
			if err := loadItem(cmd.Context(), con.stores.Applications.Engine, id); err != nil {
				return err
			}
			app, err := con.stores.Applications.UpdateStatus(cmd.Context(), id, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Application %d is now %s\n", app.ID, app.Status)
			return nil
		},
	}
}

// loadItem pages through the collection until id is among the loaded items,
// since mutations only act on records the store holds.
func loadItem[T domain.Resource](ctx context.Context, e *store.Engine[T], id uint) error {
	for page := 0; page < maxScanPages; page++ {
		p, err := e.FetchCollection(ctx, store.FetchParams{Page: page, PageSize: 100})
		if err != nil {
			return err
		}
		for _, item := range p.Content {
			if item.GetID() == id {
				return nil
			}
		}
		if page+1 >= p.TotalPages {
			break
		}
	}
	return domain.ErrNotFoundLocally
}

func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(n), nil
}
