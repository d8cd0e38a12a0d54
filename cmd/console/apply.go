package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/store"
)

func newApplyCmd(opts *rootOptions) *cobra.Command {
	var (
		sub    store.ApplicationSubmission
		cvPath string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Submit a job application with a CV (no login required)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cvPath != "" {
				cv, err := store.AttachmentFromFile(cvPath)
				if err != nil {
					return err
				}
				sub.CV = cv
			}

			app, err := opts.con.stores.Applications.Submit(cmd.Context(), sub)
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				fields := make([]string, 0, len(verr.Fields))
				for f := range verr.Fields {
					fields = append(fields, f)
				}
				sort.Strings(fields)
				for _, f := range fields {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", f, verr.Fields[f])
				}
				return errors.New("application rejected")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Application %d submitted for job %d\n", app.ID, app.JobID)
			return nil
		},
	}

	f := cmd.Flags()
	f.UintVar(&sub.JobID, "job", 0, "Job ID")
	f.StringVar(&sub.Email, "email", "", "Applicant email")
	f.StringVar(&sub.FirstName, "first-name", "", "Applicant first name")
	f.StringVar(&sub.LastName, "last-name", "", "Applicant last name")
	f.StringVar(&sub.PhoneNumber, "phone", "", "Phone number")
	f.StringVar(&sub.CoverLetter, "cover-letter", "", "Cover letter text")
	f.StringVar(&cvPath, "cv", "", "Path to the CV (PDF, DOC or DOCX)")
	return cmd
}
