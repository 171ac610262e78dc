package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"legal_intake_backend/internal/events"
	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/internal/lifecycle/repository"
	"legal_intake_backend/internal/lifecycle/triage"

	"github.com/spf13/cobra"
)

var (
	leadsStatus string
	leadsLimit  int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect intake triage queues",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List intakes by triage status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		status, err := domain.ParseLeadStatus(leadsStatus)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		bus := events.NewInMemoryBus(log)
		svc := triage.New(repository.New(pool), nil, bus, cfg, log)
		return listLeads(ctx, svc, status, leadsLimit, cmd.OutOrStdout())
	},
}

func init() {
	leadsListCmd.Flags().StringVar(&leadsStatus, "status", string(domain.LeadStatusPending), "pending, duplicate, accepted or ignored")
	leadsListCmd.Flags().IntVar(&leadsLimit, "limit", 50, "maximum rows to print")
	leadsCmd.AddCommand(leadsListCmd)
}

func listLeads(ctx context.Context, svc *triage.Service, status domain.LeadStatus, limit int, out io.Writer) error {
	leads, _, err := svc.ListByStatus(ctx, status, limit)
	if err != nil {
		return fmt.Errorf("list leads: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tCASE TYPE\tCREATED")
	for _, l := range leads {
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\t%s\n",
			l.ID, l.FirstName, l.LastName, deref(l.Email), deref(l.Phone), deref(l.CaseType),
			l.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
