package chatcmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/sipeed/taskclaw/cmd/taskclaw/internal"
	"github.com/sipeed/taskclaw/pkg/bus"
	"github.com/sipeed/taskclaw/pkg/chat"
	"github.com/sipeed/taskclaw/pkg/config"
)

const cliChannel = "cli"

func NewChatCommand() *cobra.Command {
	var (
		login   string
		taskID  int64
		message string
		debug   bool
	)

	cmd := &cobra.Command{
		Use:     "chat",
		Aliases: []string{"c"},
		Short:   "Post messages on a task thread",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := internal.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := internal.SetupLogging(cfg, debug); err != nil {
				return err
			}
			app, err := internal.NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			s := &session{
				loop:   chat.NewLoop(nil, app.Poster, app.Store),
				login:  login,
				taskID: taskID,
				out:    cmd.OutOrStdout(),
			}
			if message != "" {
				s.send(cmd.Context(), message)
				return nil
			}
			return s.interactive(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&login, "login", "l", "", "Post as this user")
	cmd.Flags().Int64VarP(&taskID, "task", "t", 0, "Task thread to post on")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Send a single message and exit")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("login")

	return cmd
}

type session struct {
	loop   *chat.Loop
	login  string
	taskID int64
	out    io.Writer
}

func (s *session) send(ctx context.Context, text string) {
	reply := s.loop.Handle(ctx, bus.InboundMessage{
		Channel:     cliChannel,
		ChatID:      "cli:" + s.login,
		SenderLogin: s.login,
		TaskID:      s.taskID,
		Content:     text,
	})
	fmt.Fprintln(s.out, render(reply))
}

// switchTask handles the REPL-local ":task <id>" directive.
func (s *session) switchTask(input string) bool {
	rest, ok := strings.CutPrefix(input, ":task")
	if !ok {
		return false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintln(s.out, "Usage: :task <id>")
		return true
	}
	s.taskID = id
	fmt.Fprintf(s.out, "Now posting on task %d\n", id)
	return true
}

func (s *session) prompt() string {
	if s.taskID > 0 {
		return fmt.Sprintf("%s #%d> ", s.login, s.taskID)
	}
	return s.login + "> "
}

func (s *session) interactive(ctx context.Context) error {
	fmt.Fprintf(s.out, "%s Interactive chat (:task <id> to switch thread, exit to quit)\n\n", internal.Logo)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     filepath.Join(config.ResolveRuntimePaths().HomeDir, ".chat_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Fprintln(s.out, "\nGoodbye!")
				return nil
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		}
		if s.switchTask(input) {
			rl.SetPrompt(s.prompt())
			continue
		}

		s.send(ctx, input)
	}
}

// render turns an outbound reply into terminal text.
func render(msg bus.OutboundMessage) string {
	switch msg.Kind {
	case "action":
		if msg.Action == nil {
			return ""
		}
		return fmt.Sprintf("→ %s: %s", msg.Action.Label, msg.Action.URL)
	case "error":
		return "✗ " + msg.Content
	}
	return chat.PlainText(msg.Content)
}
