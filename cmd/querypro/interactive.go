package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goatkit/querypro/internal/apierrors"
	"github.com/goatkit/querypro/internal/chat"
	"github.com/goatkit/querypro/internal/client"
	"github.com/goatkit/querypro/internal/dashboard"
	"github.com/goatkit/querypro/internal/models"
	"github.com/goatkit/querypro/internal/preview"
)

func newSubmitCmd(a *app) *cobra.Command {
	var (
		title, description string
		attach             []string
		classify           bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new complaint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			form := dashboard.NewForm(a.api, a.logger)
			form.SetTitle(title)
			form.SetDescription(description)

			for _, path := range attach {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open attachment: %w", err)
				}
				defer f.Close()
				form.Attach(client.Upload{Filename: filepath.Base(path), Reader: f})
			}

			if classify {
				if c := form.Classify(ctx); c != nil {
					a.printf("Suggested category: %s, priority: %s (%s)\n",
						c.PredictedCategory, c.PredictedPriority.Label(), c.ClassificationMethod)
				}
			}

			res, err := form.Submit(ctx)
			if err != nil {
				return err
			}
			if done, err := a.emit(res); done {
				return err
			}
			msg := res.Message
			if msg == "" {
				msg = "Complaint submitted successfully"
			}
			a.printf("%s\nTicket: %s\n", msg, res.TicketID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "complaint title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "complaint description")
	cmd.Flags().StringArrayVarP(&attach, "attach", "a", nil, "file to attach (repeatable)")
	cmd.Flags().BoolVar(&classify, "classify", false, "show the suggested category and priority first")
	return cmd
}

func newChatCmd(a *app) *cobra.Command {
	var transcript string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the Query Pro assistant (empty line or /quit to leave)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.provider.Token(); err != nil {
				return err
			}
			ctx := cmd.Context()
			c := chat.NewController(a.api, a.provider,
				chat.WithLogger(a.logger),
				chat.WithGreeting("Hi! Ask me about a ticket, e.g. \"status of QP-2026-0001\"."),
			)
			defer c.Close()
			for _, m := range c.Transcript() {
				a.printf("assistant> %s\n", chat.Plain(m))
			}

			scanner := bufio.NewScanner(a.in)
			for {
				a.printf("you> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" || line == "/quit" {
					break
				}
				reply, err := c.Send(ctx, line)
				switch {
				case apierrors.IsUnauthorized(err):
					return err
				case err != nil:
					a.printf("! %s\n", c.Notice())
					continue
				case reply == nil:
					continue
				}
				a.printf("assistant> %s\n", chat.Plain(*reply))
				if reply.Complaint != nil {
					a.printf("%s", dashboard.RenderComplaint(reply.Complaint, nil))
				}
			}

			if transcript != "" {
				page, err := chat.TranscriptHTML(c.Transcript())
				if err != nil {
					return err
				}
				if err := os.WriteFile(transcript, []byte(page), 0o600); err != nil {
					return fmt.Errorf("write transcript: %w", err)
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&transcript, "transcript", "", "write the conversation as HTML to this file on exit")
	return cmd
}

func newPreviewCmd(a *app) *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "preview <ticket>",
		Short: "Browse a complaint's image attachments (h/l or left/right, q to close)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr := dashboard.NewTracker(a.api, a.logger)
			state, err := tr.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if state != dashboard.TrackFound {
				a.printf("%s\n", tr.EmptyMessage())
				return nil
			}
			return a.browse(tr.Complaint(), index)
		},
	}
	cmd.Flags().IntVarP(&index, "index", "i", 0, "attachment to open")
	return cmd
}

// browse feeds stdin lines to the preview overlay as key presses until the
// overlay closes or input ends.
func (a *app) browse(c *models.Complaint, index int) error {
	if !c.HasAttachments() {
		a.printf("%s has no attachments\n", c.TicketID)
		return nil
	}
	bus := preview.NewKeyBus()
	ctrl := preview.NewController(bus)
	defer ctrl.Teardown()

	res, err := ctrl.Open(c, index)
	if err != nil {
		return apierrors.NewWithMessage(apierrors.CodeValidationFailed, err.Error())
	}
	if res.External {
		a.printf("Open in browser: %s\n", res.URL)
		return nil
	}

	scanner := bufio.NewScanner(a.in)
	for ctrl.IsOpen() {
		img, _, _ := ctrl.Current()
		a.printf("%s  %s\n%s\n> ", ctrl.Caption(), img.FileURL, ctrl.Help())
		if !scanner.Scan() {
			break
		}
		k := preview.Keypress(strings.TrimSpace(scanner.Text()))
		if !bus.Dispatch(k) {
			a.printf("unknown key %q\n", k.String())
		}
	}
	return scanner.Err()
}
