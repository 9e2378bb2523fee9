package command

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/bootstrap"
	"github.com/oficina/chat/internal/client"
	"github.com/oficina/chat/internal/panel"
	"github.com/oficina/chat/internal/pkg/helpers"
)

// ChatOptions are the flags of the terminal chat client
type ChatOptions struct {
	Options
	Server    string
	Email     string
	Password  string
	Workspace string
	Channel   string
}

// NewChatCommand opens a workspace channel in the terminal: it prints the
// conversation as it arrives and sends each stdin line as a message.
func NewChatCommand() *cobra.Command {
	opts := &ChatOptions{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Follow and post to a workspace channel from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			// stdout carries the transcript
			cfg, lgr, closer, err := bootstrap.LoadConfigAndSetupLoggerTo(opts.ConfigPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			api, err := client.New(opts.Server, client.WithLogger(lgr))
			if err != nil {
				return err
			}
			session, err := api.Login(ctx, opts.Email, opts.Password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			p := panel.New(api, panel.NewStore(panel.SubTabChat), panel.Session{
				UserID:   session.User.ID,
				UserName: session.User.Name,
			}, panel.Options{
				GroupingWindow: helpers.ParseDuration(cfg.Chat.GroupingWindow, panel.DefaultGroupingWindow),
				Logger:         lgr,
			})
			defer p.Close()

			if err := openChannel(ctx, p, opts.Workspace, opts.Channel); err != nil {
				return err
			}
			if err := p.LastError(); err != nil {
				lgr.Warn().Err(err).Msg("Channel opened with errors; live updates may be missing")
			}

			go func() {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					p.SetDraft(scanner.Text())
					if err := p.Send(ctx); err != nil {
						lgr.Warn().Err(err).Msg("Message not sent")
					}
				}
			}()

			follow(ctx, cmd.OutOrStdout(), p, 300*time.Millisecond)
			return nil
		},
	}
	opts.AddFlags(cmd.Flags())
	cmd.Flags().StringVar(&opts.Server, "server", "http://localhost:8080", "base URL of the chat API")
	cmd.Flags().StringVar(&opts.Email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password")
	cmd.Flags().StringVarP(&opts.Workspace, "workspace", "w", "", "workspace id")
	cmd.Flags().StringVar(&opts.Channel, "channel", "", "channel name, defaults to general")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("workspace")
	return cmd
}

// openChannel opens the workspace and the requested channel. Only a missing
// workspace or channel is fatal; load and subscribe failures land in
// LastError, the same way for the default and the requested channel.
func openChannel(ctx context.Context, p *panel.Panel, workspaceID, channel string) error {
	if err := p.SetWorkspace(ctx, workspaceID); err != nil {
		return err
	}
	if channel != "" {
		groupID, ok := findGroup(p.Groups(), channel)
		if !ok {
			return fmt.Errorf("channel %q not found", channel)
		}
		// SelectGroup records its failures in LastError
		_ = p.SelectGroup(ctx, groupID)
	}
	if p.ActiveGroup() == "" {
		return fmt.Errorf("workspace %s has no channels", workspaceID)
	}
	return nil
}

func findGroup(groups []dto.ChatGroupResponse, name string) (string, bool) {
	for _, g := range groups {
		if strings.EqualFold(g.Name, strings.TrimPrefix(name, "#")) {
			return g.ID, true
		}
	}
	return "", false
}

// follow prints new rows until ctx is done
func follow(ctx context.Context, w io.Writer, p *panel.Panel, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	printed := 0
	for {
		rows := p.Rows()
		printed = renderRows(w, rows, printed)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// renderRows writes rows[from:] and returns the new printed count. A
// shorter list than from means the conversation was replaced.
func renderRows(w io.Writer, rows []panel.Row, from int) int {
	if from > len(rows) {
		from = 0
	}
	for _, r := range rows[from:] {
		if r.ShowHeader {
			name := r.AuthorName
			if r.Own {
				name += " (you)"
			}
			fmt.Fprintf(w, "%s  %s\n", name, r.Message.CreatedAt.Local().Format("15:04"))
		}
		fmt.Fprintf(w, "  %s\n", r.Message.Content)
	}
	return len(rows)
}
