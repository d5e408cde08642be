// Package shell provides the interactive shell interface and input processing for JARVIS.
// Backslash input runs a built-in; everything else goes through the command grammar to the
// automation dispatcher, and unmatched phrases are answered by the AI service.
package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/abiosoft/ishell/v2"
	"github.com/muesli/termenv"

	"jarvis/internal/automation"
	"jarvis/internal/grammar"
	"jarvis/internal/logger"
	"jarvis/internal/parser"
	"jarvis/internal/services"
	"jarvis/internal/testutils"
	"jarvis/pkg/jarvistypes"
)

// NoProviderMessage answers general questions when no AI provider has an API key.
const NoProviderMessage = "I'm afraid I can't answer that yet. Configure an AI provider key " +
	"(GROQ_API_KEY, COHERE_API_KEY, GEMINI_API_KEY or ANTHROPIC_API_KEY) and ask me again."

// Printer receives shell output. *ishell.Context satisfies it.
type Printer interface {
	Println(val ...interface{})
	Printf(format string, val ...interface{})
}

// Shell routes one line of input at a time.
type Shell struct {
	dispatcher *automation.Dispatcher
	ai         *services.AIService
	chats      *services.ChatStorageService
	voice      *services.VoiceProfileService
	theme      *services.ThemeService
	markdown   *services.MarkdownService
	progress   *services.ProgressService
	mode       jarvistypes.ModeProvider
	exit       func()
	builtins   map[string]builtin
}

// Option configures a Shell.
type Option func(*Shell)

// WithExit sets the function run by \exit.
func WithExit(exit func()) Option {
	return func(s *Shell) { s.exit = exit }
}

// WithMode sets the mode used for message timestamps.
func WithMode(mode jarvistypes.ModeProvider) Option {
	return func(s *Shell) { s.mode = mode }
}

// New creates a shell over dispatcher. Services are looked up in registry by name; any that are
// missing disable the features that need them.
func New(dispatcher *automation.Dispatcher, registry *services.Registry, opts ...Option) *Shell {
	s := &Shell{
		dispatcher: dispatcher,
		mode:       jarvistypes.StaticMode(false),
		exit:       func() {},
	}
	if registry != nil {
		s.ai, _ = services.Lookup[*services.AIService](registry, "ai")
		s.chats, _ = services.Lookup[*services.ChatStorageService](registry, "chat_storage")
		s.voice, _ = services.Lookup[*services.VoiceProfileService](registry, "voice")
		s.theme, _ = services.Lookup[*services.ThemeService](registry, "theme")
		s.markdown, _ = services.Lookup[*services.MarkdownService](registry, "markdown")
		s.progress, _ = services.Lookup[*services.ProgressService](registry, "progress")
	}
	if s.theme == nil {
		s.theme = services.NewThemeServiceWithProfile(termenv.Ascii)
		if err := s.theme.Initialize(); err != nil {
			logger.Warn("Failed to load plain theme", "error", err)
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	s.builtins = s.defaultBuiltins()
	return s
}

// ProcessInput handles one line typed into the interactive shell.
func (s *Shell) ProcessInput(c *ishell.Context) {
	if len(c.RawArgs) == 0 {
		return
	}
	s.Execute(context.Background(), c, strings.Join(c.RawArgs, " "))
}

// Execute runs one line of input. Blank lines and # comments are ignored.
func (s *Shell) Execute(ctx context.Context, out Printer, input string) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return
	}
	if parser.IsCommand(input) {
		s.runBuiltin(ctx, out, input)
		return
	}
	s.runCommand(ctx, out, input)
}

func (s *Shell) runBuiltin(ctx context.Context, out Printer, input string) {
	cmd, err := parser.ParseCommand(input)
	if err != nil {
		out.Println(s.failure(fmt.Sprintf("Error: %s", err)))
		out.Println("Type \\help for available commands")
		return
	}
	fn, ok := s.builtins[cmd.Name]
	if !ok {
		out.Println(s.failure(fmt.Sprintf("Unknown command: \\%s", cmd.Name)))
		out.Println("Type \\help for available commands")
		return
	}
	if err := fn(ctx, out, cmd); err != nil {
		logger.Error("Built-in failed", "command", cmd.Name, "error", err)
		out.Println(s.failure(fmt.Sprintf("Error: %s", err)))
	}
}

func (s *Shell) runCommand(ctx context.Context, out Printer, input string) {
	cmd := grammar.ParseWithFallback(input)
	logger.Debug("Parsed input", "kind", string(cmd.Kind), "action", cmd.Action, "confidence", cmd.Confidence)

	var reply string
	if cmd.Kind == jarvistypes.KindGeneral {
		reply = s.answer(ctx, out, cmd.StringParam("query", input))
	} else {
		resp := s.dispatcher.Execute(ctx, cmd)
		out.Println(s.theme.RenderResponse(resp))
		reply = resp.Message
	}

	s.remember(input, reply)
	if s.voice != nil {
		if err := s.voice.Speak(ctx, reply); err != nil {
			logger.Warn("Speech failed", "error", err)
		}
	}
}

// answer sends a general question to the AI service and prints the reply.
func (s *Shell) answer(ctx context.Context, out Printer, query string) string {
	if s.ai == nil || !s.ai.HasConfiguredProvider() {
		out.Println(s.theme.Current().Warning.Render(NoProviderMessage))
		return NoProviderMessage
	}

	var resp *jarvistypes.AIResponse
	ask := func() (err error) {
		resp, err = s.ai.GenerateResponse(ctx, query, "")
		return err
	}
	var err error
	if s.progress != nil {
		err = s.progress.Track("ai", "Thinking", ask)
	} else {
		err = ask()
	}
	if err != nil {
		logger.Error("AI request failed", "error", err)
		msg := fmt.Sprintf("I'm having trouble reaching my AI systems right now: %v", err)
		out.Println(s.failure(msg))
		return msg
	}

	out.Println(s.renderMarkdown(resp.Content))
	out.Println(s.theme.Current().Muted.Render("(" + resp.Provider + ")"))
	return resp.Content
}

func (s *Shell) renderMarkdown(md string) string {
	if s.markdown == nil {
		return md
	}
	rendered, err := s.markdown.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(rendered, "\n")
}

// remember appends the exchange to the current chat session, starting one when needed.
func (s *Shell) remember(input, reply string) {
	if s.chats == nil {
		return
	}
	now := testutils.GetCurrentTime(s.mode)
	messages := []jarvistypes.Message{
		{Type: jarvistypes.MessageUser, Content: input, Timestamp: now},
		{Type: jarvistypes.MessageAssistant, Content: reply, Timestamp: now},
	}

	id, ok, err := s.chats.CurrentSessionID()
	if err == nil && ok {
		if err = s.chats.UpdateSession(id, func(cs *jarvistypes.ChatSession) {
			cs.Messages = append(cs.Messages, messages...)
		}); err == nil {
			return
		}
		logger.Debug("Current chat session unavailable, starting a new one", "id", id, "error", err)
	}
	if _, err := s.chats.CreateSession(messages, ""); err != nil {
		logger.Warn("Failed to save chat session", "error", err)
	}
}

func (s *Shell) failure(msg string) string {
	return s.theme.Current().Failure.Render(msg)
}
