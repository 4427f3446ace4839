package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/domain/turn"
	"github.com/view-avocats/assistant/internal/usecase/conversation"
)

// NewChatCmd creates the interactive chat command.
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		Long: `Open an interactive conversation using the same session logic as the
widget. Type /reset to start a new conversation and /quit to exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), configPath(cmd))
		},
	}
}

func runChat(ctx context.Context, in io.Reader, out io.Writer, cfgPath string) error {
	a, err := newApp(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.prepareIndex(ctx); err != nil {
		return err
	}

	r := newTerminalRenderer(out)
	sessions := conversation.New(a.responder, conversation.Config{
		FallbackMessage: a.cfg.Chat.FallbackMessage,
		MaxMessageChars: a.cfg.Chat.MaxMessageChars,
	}, a.logger).WithRenderer(r)

	return chatLoop(ctx, in, out, sessions, r, a.logger)
}

// chatSessions is the part of the conversation service the REPL drives.
type chatSessions interface {
	Start() (string, error)
	End(id string) error
	Submit(ctx context.Context, id, text string) (conversation.Exchange, error)
}

func chatLoop(ctx context.Context, in io.Reader, out io.Writer, sessions chatSessions, r *terminalRenderer, logger *zap.Logger) error {
	id, err := sessions.Start()
	if err != nil {
		return err
	}
	r.reset(id)
	fmt.Fprintln(out, "Posez votre question (/reset, /quit).")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return sessions.End(id)
		case "/reset":
			_ = sessions.End(id)
			if id, err = sessions.Start(); err != nil {
				return err
			}
			r.reset(id)
			fmt.Fprintln(out, "Nouvelle conversation.")
			continue
		}

		if _, err := sessions.Submit(ctx, id, line); err != nil {
			if errors.Is(err, domain.ErrEmptyMessage) || errors.Is(err, domain.ErrMessageTooLong) {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			logger.Error("Submit failed", zap.String("session_id", id), zap.Error(err))
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return sessions.End(id)
}

// terminalRenderer prints the turns not shown yet for the current session.
type terminalRenderer struct {
	out io.Writer

	mu      sync.Mutex
	session string
	shown   int
}

func newTerminalRenderer(out io.Writer) *terminalRenderer {
	return &terminalRenderer{out: out}
}

func (r *terminalRenderer) reset(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = sessionID
	r.shown = 0
}

// Render implements conversation.Renderer.
func (r *terminalRenderer) Render(sessionID string, turns []turn.Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sessionID != r.session {
		return
	}
	for _, t := range turns[min(r.shown, len(turns)):] {
		// The visitor already sees their own input on the prompt line.
		if t.Role() == domain.RoleAssistant {
			printTurn(r.out, t)
		}
	}
	r.shown = len(turns)
}

func printTurn(out io.Writer, t turn.Turn) {
	label := "Vous"
	if t.Role() == domain.RoleAssistant {
		label = "Assistant"
	}
	if t.Failed() {
		label += " (erreur)"
	}
	fmt.Fprintf(out, "%s [%s]: %s\n", label, t.CreatedAt().Local().Format("15:04"), t.Text())
}
