package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/goatkit/querypro/internal/apierrors"
	"github.com/goatkit/querypro/internal/dashboard"
	"github.com/goatkit/querypro/internal/models"
)

func (a *app) dashboard() *dashboard.Dashboard {
	return dashboard.New(a.api, a.role(), dashboard.WithLogger(a.logger))
}

// loadSection opens a dashboard on section and returns it once the first
// fetch completed.
func (a *app) loadSection(ctx context.Context, section dashboard.Section) (*dashboard.Dashboard, error) {
	d := a.dashboard()
	return d, d.SetSection(ctx, section)
}

func (a *app) printList(d *dashboard.Dashboard) error {
	list := d.Complaints()
	if done, err := a.emit(list); done {
		return err
	}
	a.printf("%s", dashboard.RenderList(d.Section().Title(), list, time.Now(), d.EmptyMessage()))
	return nil
}

func newComplaintsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "complaints",
		Aliases: []string{"c"},
		Short:   "List and manage complaints",
	}
	cmd.AddCommand(
		newComplaintsListCmd(a),
		newComplaintsMineCmd(a),
		newComplaintsShowCmd(a),
		newTransitionCmd(a, "start", models.ActionStartProgress),
		newTransitionCmd(a, "resolve", models.ActionMarkResolved),
	)
	return cmd
}

func statusSection(role models.Role, status string) (dashboard.Section, error) {
	if status == "" {
		if role == models.RoleAdmin {
			return dashboard.SectionAll, nil
		}
		return dashboard.SectionMine, nil
	}
	st, err := models.ParseStatus(status)
	if err != nil {
		return "", apierrors.NewWithMessage(apierrors.CodeValidationFailed, err.Error())
	}
	switch st {
	case models.StatusPending:
		if role == models.RoleAdmin {
			return dashboard.SectionPending, nil
		}
	case models.StatusInProgress:
		if role == models.RoleAdmin {
			return dashboard.SectionInProgress, nil
		}
	case models.StatusResolved:
		return dashboard.SectionResolved, nil
	}
	return "", apierrors.NewWithMessage(apierrors.CodeValidationFailed, fmt.Sprintf("no %s list for %s accounts", st.Label(), role))
}

func newComplaintsListCmd(a *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List complaints, optionally filtered by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			section, err := statusSection(a.role(), status)
			if err != nil {
				return err
			}
			d, err := a.loadSection(cmd.Context(), section)
			if err != nil {
				return err
			}
			return a.printList(d)
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "pending, in_progress or resolved")
	return cmd
}

func newComplaintsMineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List the complaints you submitted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.role() == models.RoleAdmin {
				return apierrors.NewWithMessage(apierrors.CodeForbidden, "Admins have no complaints of their own")
			}
			d, err := a.loadSection(cmd.Context(), dashboard.SectionMine)
			if err != nil {
				return err
			}
			return a.printList(d)
		},
	}
}

func newComplaintsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|ticket>",
		Short: "Show one complaint with its available actions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.loadSection(cmd.Context(), allSection(a.role()))
			if err != nil {
				return err
			}
			c, ok := d.Find(args[0])
			if !ok {
				return apierrors.NewWithMessage(apierrors.CodeNotFound, "Complaint not found")
			}
			if done, err := a.emit(c); done {
				return err
			}
			a.printf("%s", dashboard.RenderComplaint(&c, d.Actions(c.ID)))
			return nil
		},
	}
}

func allSection(role models.Role) dashboard.Section {
	if role == models.RoleAdmin {
		return dashboard.SectionAll
	}
	return dashboard.SectionMine
}

func newTransitionCmd(a *app, use string, action models.Action) *cobra.Command {
	var response string
	cmd := &cobra.Command{
		Use:   use + " <id|ticket>",
		Short: action.Label(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.role() != models.RoleAdmin {
				return apierrors.NewWithMessage(apierrors.CodeForbidden, "Status changes need the admin session (--admin)")
			}
			ctx := cmd.Context()
			d, err := a.loadSection(ctx, dashboard.SectionAll)
			if err != nil {
				return err
			}
			if err := d.Transition(ctx, args[0], action, response); err != nil {
				return err
			}
			c, _ := d.Find(args[0])
			if done, err := a.emit(c); done {
				return err
			}
			a.printf("%s is now %s\n", c.TicketID, c.Status.Label())
			return nil
		},
	}
	if action == models.ActionMarkResolved {
		cmd.Flags().StringVarP(&response, "response", "r", "", "admin response shown to the student")
	}
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show complaint statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.loadSection(cmd.Context(), dashboard.SectionDashboard)
			if err != nil {
				return err
			}
			st := d.Stats()
			if st == nil {
				return apierrors.NewWithMessage(apierrors.CodeApplication, "Statistics unavailable")
			}
			if done, err := a.emit(st); done {
				return err
			}
			a.printf("%s", dashboard.RenderStats(st))
			return nil
		},
	}
}

func newTrackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "track <ticket>",
		Short: "Look up a complaint by ticket id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr := dashboard.NewTracker(a.api, a.logger)
			state, err := tr.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if state == dashboard.TrackNotFound {
				a.printf("%s\n", tr.EmptyMessage())
				return nil
			}
			c := tr.Complaint()
			if done, err := a.emit(c); done {
				return err
			}
			a.printf("%s", dashboard.RenderComplaint(c, nil))
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var out, status string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a complaint report spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			section, err := statusSection(a.role(), status)
			if err != nil {
				return err
			}
			d, err := a.loadSection(cmd.Context(), section)
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create report: %w", err)
			}
			list := d.Complaints()
			if err := dashboard.ExportXLSX(f, list); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.printf("Exported %d complaints to %s\n", len(list), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "complaints.xlsx", "output file")
	cmd.Flags().StringVarP(&status, "status", "s", "", "only export complaints in this status")
	return cmd
}

// printingRefresher redraws the dashboard after every refresh.
type printingRefresher struct {
	a *app
	d *dashboard.Dashboard
}

func (p printingRefresher) Refresh(ctx context.Context) error {
	err := p.d.Refresh(ctx)
	p.a.printf("\n%s (refreshed %s)\n", p.d.Section().Title(), dashboard.FormatDate(time.Now()))
	p.a.printf("%s", dashboard.RenderDashboard(p.d, time.Now()))
	return err
}

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the dashboard on screen, refreshing periodically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval == 0 {
				interval = a.cfg.Poll.Interval
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			d := a.dashboard()
			defer d.Close()
			target := printingRefresher{a: a, d: d}

			var authErr error
			poller, err := dashboard.NewPoller(target, interval,
				dashboard.WithPollerLogger(a.logger),
				dashboard.WithUnauthorizedHandler(func(err error) {
					authErr = err
					cancel()
				}),
			)
			if err != nil {
				return err
			}
			if err := target.Refresh(ctx); err != nil {
				if apierrors.IsUnauthorized(err) {
					return err
				}
			}
			if err := poller.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			poller.Stop()
			return authErr
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval (default from config)")
	return cmd
}
