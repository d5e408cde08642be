package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jarvis/internal/grammar"
	"jarvis/internal/parser"
	"jarvis/internal/services"
	"jarvis/pkg/jarvistypes"
)

const defaultHistoryLimit = 10

type builtin func(ctx context.Context, out Printer, cmd *parser.Command) error

func (s *Shell) defaultBuiltins() map[string]builtin {
	return map[string]builtin{
		"help":          s.help,
		"examples":      s.examples,
		"tabs":          s.tabs,
		"close-tabs":    s.closeTabs,
		"queue":         s.queue,
		"clear-queue":   s.clearQueue,
		"history":       s.history,
		"stop":          s.stop,
		"scroll-status": s.scrollStatus,
		"enable":        s.toggle(true),
		"disable":       s.toggle(false),
		"sessions":      s.sessions,
		"new":           s.newSession,
		"export":        s.export,
		"import":        s.importSessions,
		"voice":         s.voiceProfile,
		"provider":      s.provider,
		"exit":          s.exitShell,
	}
}

func (s *Shell) help(_ context.Context, out Printer, cmd *parser.Command) error {
	topic := strings.ToLower(cmd.Message)
	if topic == "" {
		topic = "shell"
	}
	if s.markdown == nil {
		return errors.New("help is not available")
	}
	rendered, err := s.markdown.RenderTopic(topic)
	if err != nil {
		topics, _ := s.markdown.Topics()
		return fmt.Errorf("%w (topics: %s)", err, strings.Join(topics, ", "))
	}
	out.Println(strings.TrimRight(rendered, "\n"))
	return nil
}

func (s *Shell) examples(_ context.Context, out Printer, cmd *parser.Command) error {
	filter := strings.ToLower(cmd.Message)
	shown := 0
	for _, group := range grammar.Examples() {
		if filter != "" && !strings.Contains(strings.ToLower(group.Title), filter) {
			continue
		}
		out.Println(s.theme.Current().Highlight.Render(group.Title))
		out.Println(s.theme.RenderList(group.Commands))
		shown++
	}
	if shown == 0 {
		return fmt.Errorf("no examples for %q", cmd.Message)
	}
	return nil
}

func (s *Shell) tabs(_ context.Context, out Printer, _ *parser.Command) error {
	open := s.dispatcher.GetOpenTabs()
	if len(open) == 0 {
		out.Println("No tabs open")
		return nil
	}
	out.Printf("%d open tab(s):\n", len(open))
	out.Println(s.theme.RenderList(open))
	return nil
}

func (s *Shell) closeTabs(_ context.Context, out Printer, _ *parser.Command) error {
	count := len(s.dispatcher.GetOpenTabs())
	if err := s.dispatcher.CloseAllTabs(); err != nil {
		return err
	}
	out.Println(s.theme.RenderResponse(jarvistypes.Succeeded(fmt.Sprintf("Closed %d tab(s)", count), nil)))
	return nil
}

func (s *Shell) queue(_ context.Context, out Printer, _ *parser.Command) error {
	status := s.dispatcher.QueueStatus()
	state := "idle"
	if s.dispatcher.IsExecuting() {
		state = "executing"
	}
	out.Printf("Automation %s, %d queued command(s)\n", state, status.Length)
	if status.Length > 0 {
		out.Println(s.theme.RenderList(status.Commands))
	}
	return nil
}

func (s *Shell) clearQueue(_ context.Context, out Printer, _ *parser.Command) error {
	s.dispatcher.ClearQueue()
	out.Println(s.theme.RenderResponse(jarvistypes.Succeeded("Command queue cleared", nil)))
	return nil
}

func (s *Shell) history(_ context.Context, out Printer, cmd *parser.Command) error {
	limit, err := cmd.IntOption("limit", defaultHistoryLimit)
	if err != nil {
		return err
	}
	entries := s.dispatcher.History()
	if len(entries) == 0 {
		out.Println("No commands executed yet")
		return nil
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	for _, e := range entries {
		out.Printf("%s %s %s\n",
			s.theme.Current().Muted.Render(e.Timestamp.Format(time.TimeOnly)),
			s.theme.Current().Command.Render(e.Command.String()),
			s.theme.RenderResponse(e.Response))
	}
	return nil
}

func (s *Shell) stop(ctx context.Context, out Printer, _ *parser.Command) error {
	engine := s.dispatcher.ScrollEngine()
	if !engine.IsCurrentlyScrolling() {
		out.Println("Not scrolling")
		return nil
	}
	engine.StopScrolling(ctx)
	out.Println(s.theme.RenderResponse(jarvistypes.Succeeded("Scrolling stopped", nil)))
	return nil
}

func (s *Shell) scrollStatus(ctx context.Context, out Printer, _ *parser.Command) error {
	engine := s.dispatcher.ScrollEngine()
	if engine.IsCurrentlyScrolling() {
		line := "Scrolling"
		if current := engine.CurrentCommand(); current != nil {
			line += fmt.Sprintf(": %s %s", current.Type, current.Direction)
		}
		out.Println(line)
	} else {
		out.Println("Not scrolling")
	}

	pct, err := engine.GetScrollPercentage(ctx)
	if err != nil {
		return fmt.Errorf("failed to read scroll position: %w", err)
	}
	out.Printf("Position: %.0f%%\n", pct)
	if last := engine.LastCompletion(); last != nil {
		out.Printf("Last: %s\n", last.Message)
	}
	return nil
}

func (s *Shell) toggle(enabled bool) builtin {
	return func(_ context.Context, out Printer, _ *parser.Command) error {
		s.dispatcher.SetEnabled(enabled)
		msg := "Automation disabled"
		if enabled {
			msg = "Automation enabled"
		}
		out.Println(s.theme.RenderResponse(jarvistypes.Succeeded(msg, nil)))
		return nil
	}
}

func (s *Shell) requireChats() error {
	if s.chats == nil {
		return errors.New("chat storage is not available")
	}
	return nil
}

func (s *Shell) sessions(_ context.Context, out Printer, cmd *parser.Command) error {
	if err := s.requireChats(); err != nil {
		return err
	}

	var (
		list []jarvistypes.ChatSession
		err  error
	)
	if cmd.Message != "" {
		list, err = s.chats.Search(cmd.Message)
	} else {
		list, err = s.chats.Filter(jarvistypes.SessionFilter(cmd.Option("filter", string(jarvistypes.FilterAll))))
	}
	if err != nil {
		return err
	}
	list = services.SortSessions(list, jarvistypes.SessionSort(cmd.Option("sort", string(jarvistypes.SortDate))))

	if len(list) == 0 {
		out.Println("No chat sessions")
		return nil
	}
	current, _, _ := s.chats.CurrentSessionID()
	items := make([]string, 0, len(list))
	for _, cs := range list {
		marker := ""
		if cs.IsStarred {
			marker += "★ "
		}
		if cs.ID == current {
			marker += "▶ "
		}
		items = append(items, fmt.Sprintf("%s%s (%d messages, %s)", marker, cs.Title, cs.MessageCount,
			cs.UpdatedAt.Format("2006-01-02 15:04")))
	}
	out.Println(s.theme.RenderList(items))

	if stats, err := s.chats.Statistics(); err == nil {
		out.Println(s.theme.Current().Muted.Render(fmt.Sprintf("%d sessions, %d messages, %d starred, %d archived",
			stats.TotalSessions, stats.TotalMessages, stats.StarredSessions, stats.ArchivedSessions)))
	}
	return nil
}

func (s *Shell) newSession(_ context.Context, out Printer, _ *parser.Command) error {
	if err := s.requireChats(); err != nil {
		return err
	}
	if err := s.chats.ClearCurrentSession(); err != nil {
		return err
	}
	out.Println(s.theme.RenderResponse(jarvistypes.Succeeded("New chat started", nil)))
	return nil
}

func (s *Shell) export(_ context.Context, out Printer, cmd *parser.Command) error {
	if err := s.requireChats(); err != nil {
		return err
	}
	if cmd.Message == "" {
		return errors.New("usage: \\export <file>")
	}
	if err := s.chats.ExportToFile(cmd.Message); err != nil {
		return err
	}
	out.Println(s.theme.RenderResponse(jarvistypes.Succeeded("Chat sessions exported to "+cmd.Message, nil)))
	return nil
}

func (s *Shell) importSessions(_ context.Context, out Printer, cmd *parser.Command) error {
	if err := s.requireChats(); err != nil {
		return err
	}
	if cmd.Message == "" {
		return errors.New("usage: \\import <file>")
	}
	result, err := s.chats.ImportFromFile(cmd.Message)
	if err != nil {
		return err
	}
	out.Println(s.theme.RenderResponse(jarvistypes.AutomationResponse{Success: result.Success, Message: result.Message}))
	return nil
}

func (s *Shell) voiceProfile(_ context.Context, out Printer, cmd *parser.Command) error {
	if s.voice == nil {
		return errors.New("voice is not available")
	}
	switch arg := strings.ToLower(cmd.Message); arg {
	case "":
		current := s.voice.CurrentProfile()
		items := make([]string, 0)
		for _, p := range s.voice.Profiles() {
			line := fmt.Sprintf("%s: %s", p.ID, p.Description)
			if p.ID == current.ID {
				line = s.theme.Current().Highlight.Render(line)
			}
			items = append(items, line)
		}
		out.Println(s.theme.RenderList(items))
		out.Printf("Speech %s\n", map[bool]string{true: "on", false: "off"}[s.voice.IsEnabled()])
	case "on", "off":
		s.voice.SetEnabled(arg == "on")
		out.Println(s.theme.RenderResponse(jarvistypes.Succeeded("Speech "+arg, nil)))
	default:
		if err := s.voice.SetProfile(arg); err != nil {
			return err
		}
		out.Println(s.theme.RenderResponse(jarvistypes.Succeeded(
			"Voice profile changed to "+s.voice.CurrentProfile().Name, nil)))
	}
	return nil
}

func (s *Shell) provider(_ context.Context, out Printer, cmd *parser.Command) error {
	if s.ai == nil {
		return errors.New("AI service is not available")
	}
	if cmd.Message == "" {
		out.Printf("Current provider: %s\n", s.ai.GetDefaultProvider())
		out.Println(s.theme.RenderList(s.ai.GetAvailableProviders()))
		return nil
	}
	if err := s.ai.SetDefaultProvider(cmd.Message); err != nil {
		return err
	}
	out.Println(s.theme.RenderResponse(jarvistypes.Succeeded("AI provider set to "+s.ai.GetDefaultProvider(), nil)))
	return nil
}

func (s *Shell) exitShell(_ context.Context, out Printer, _ *parser.Command) error {
	out.Println("Goodbye.")
	s.exit()
	return nil
}
