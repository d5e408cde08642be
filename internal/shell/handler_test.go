package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/automation"
	"jarvis/internal/services"
	"jarvis/internal/storage"
	"jarvis/internal/testutils"
	"jarvis/pkg/jarvistypes"
)

// recordingPrinter collects shell output.
type recordingPrinter struct {
	b strings.Builder
}

func (p *recordingPrinter) Println(val ...interface{}) {
	p.b.WriteString(fmt.Sprintln(val...))
}

func (p *recordingPrinter) Printf(format string, val ...interface{}) {
	fmt.Fprintf(&p.b, format, val...)
}

func (p *recordingPrinter) String() string { return p.b.String() }

func (p *recordingPrinter) Reset() { p.b.Reset() }

type stubClient struct {
	reply string
	err   error
	calls []string
}

func (c *stubClient) GetProviderName() string { return "groq" }
func (c *stubClient) IsConfigured() bool      { return true }

func (c *stubClient) GenerateResponse(_ context.Context, _, prompt string) (*jarvistypes.AIResponse, error) {
	c.calls = append(c.calls, prompt)
	if c.err != nil {
		return nil, c.err
	}
	return &jarvistypes.AIResponse{Content: c.reply, Provider: "groq"}, nil
}

type fixture struct {
	shell   *Shell
	env     *testutils.FakeEnvironment
	d       *automation.Dispatcher
	chats   *services.ChatStorageService
	voice   *services.VoiceProfileService
	speaker *testutils.RecordingSpeaker
	out     *recordingPrinter
	exited  bool
}

// newFixture wires a shell over a fake page. A nil client leaves the AI service unregistered.
func newFixture(t *testing.T, client jarvistypes.AIClient) *fixture {
	t.Helper()
	testutils.ResetTestCounters()

	f := &fixture{
		env:     testutils.NewFakeEnvironment(800, 4000),
		speaker: &testutils.RecordingSpeaker{},
		out:     &recordingPrinter{},
	}
	f.d = automation.NewDispatcher(f.env, automation.WithTimeUnit(time.Millisecond))
	t.Cleanup(f.d.Close)

	f.chats = services.NewChatStorageService(storage.NewMemoryStorage(), testutils.TestMode)
	f.voice = services.NewVoiceProfileService(f.speaker)

	registry := services.NewRegistry()
	require.NoError(t, registry.RegisterService(services.NewThemeServiceWithProfile(termenv.Ascii)))
	require.NoError(t, registry.RegisterService(services.NewMarkdownService("notty")))
	require.NoError(t, registry.RegisterService(f.chats))
	require.NoError(t, registry.RegisterService(f.voice))
	if client != nil {
		source := func(provider string) (jarvistypes.AIClient, error) {
			if provider == "groq" {
				return client, nil
			}
			return nil, errors.New("no key")
		}
		require.NoError(t, registry.RegisterService(services.NewAIServiceWithSource(source, "groq")))
	}
	require.NoError(t, registry.InitializeAll())

	f.shell = New(f.d, registry, WithExit(func() { f.exited = true }), WithMode(testutils.TestMode))
	return f
}

func (f *fixture) run(input string) string {
	f.out.Reset()
	f.shell.Execute(context.Background(), f.out, input)
	return f.out.String()
}

func TestShell_IgnoresBlankInputAndComments(t *testing.T) {
	f := newFixture(t, nil)

	for _, input := range []string{"", "   ", "# open youtube"} {
		assert.Empty(t, f.run(input), "input %q", input)
	}
	assert.Empty(t, f.env.OpenedURLs())
}

func TestShell_DispatchesGrammarCommands(t *testing.T) {
	f := newFixture(t, nil)

	out := f.run("open spotify")
	assert.Contains(t, out, "Opening https://open.spotify.com")
	assert.Equal(t, []string{"https://open.spotify.com"}, f.env.OpenedURLs())

	sessions, err := f.chats.GetAllSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "open spotify", sessions[0].Title)
	require.Len(t, sessions[0].Messages, 2)
	assert.Equal(t, jarvistypes.MessageAssistant, sessions[0].Messages[1].Type)
	assert.Equal(t, "Opening https://open.spotify.com", sessions[0].Messages[1].Content)

	require.Len(t, f.speaker.Lines(), 1)
	assert.Equal(t, "jarvis", f.speaker.Lines()[0].Profile.ID)
}

func TestShell_ConversationAppendsToCurrentSession(t *testing.T) {
	f := newFixture(t, nil)

	f.run("open spotify")
	f.run("volume up")

	sessions, err := f.chats.GetAllSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 4, sessions[0].MessageCount)
	assert.Equal(t, "System volume control is not available", sessions[0].LastMessage)

	f.run("\\new")
	f.run("open spotify")
	sessions, err = f.chats.GetAllSessions()
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestShell_GeneralQueryWithoutProvider(t *testing.T) {
	f := newFixture(t, nil)

	out := f.run("tell me a joke")
	assert.Contains(t, out, "Configure an AI provider key")
	assert.Empty(t, f.env.OpenedURLs())

	sessions, err := f.chats.GetAllSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, NoProviderMessage, sessions[0].LastMessage)
}

func TestShell_GeneralQueryUsesAI(t *testing.T) {
	client := &stubClient{reply: "Why did the robot cross the road?"}
	f := newFixture(t, client)

	out := f.run("tell me a joke")
	assert.Equal(t, []string{"tell me a joke"}, client.calls)
	assert.Contains(t, out, "robot cross the road")
	assert.Contains(t, out, "(groq)")

	sessions, err := f.chats.GetAllSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, client.reply, sessions[0].LastMessage)
}

func TestShell_GeneralQueryAIFailure(t *testing.T) {
	f := newFixture(t, &stubClient{err: errors.New("rate limited")})

	out := f.run("tell me a joke")
	assert.Contains(t, out, "trouble reaching my AI systems")
	assert.Contains(t, out, "rate limited")
}

type slowClient struct {
	stubClient
	delay time.Duration
}

func (c *slowClient) GenerateResponse(ctx context.Context, system, prompt string) (*jarvistypes.AIResponse, error) {
	time.Sleep(c.delay)
	return c.stubClient.GenerateResponse(ctx, system, prompt)
}

func TestShell_GeneralQueryShowsProgress(t *testing.T) {
	var spinner bytes.Buffer
	progress := services.NewProgressService(&spinner)
	progress.SetInterval(2 * time.Millisecond)

	client := &slowClient{stubClient: stubClient{reply: "Forty-two."}, delay: 30 * time.Millisecond}
	source := func(string) (jarvistypes.AIClient, error) { return client, nil }

	registry := services.NewRegistry()
	require.NoError(t, registry.RegisterService(services.NewThemeServiceWithProfile(termenv.Ascii)))
	require.NoError(t, registry.RegisterService(services.NewAIServiceWithSource(source, "groq")))
	require.NoError(t, registry.RegisterService(progress))
	require.NoError(t, registry.InitializeAll())

	d := automation.NewDispatcher(testutils.NewFakeEnvironment(800, 2000))
	t.Cleanup(d.Close)
	sh := New(d, registry)

	out := &recordingPrinter{}
	sh.Execute(context.Background(), out, "tell me a joke")
	assert.Contains(t, out.String(), "Forty-two.")
	assert.Contains(t, spinner.String(), "Thinking")
	assert.False(t, progress.IsActive("ai"))
}

func TestShell_UnknownAndMalformedBuiltins(t *testing.T) {
	f := newFixture(t, nil)

	out := f.run("\\teleport")
	assert.Contains(t, out, "Unknown command: \\teleport")
	assert.Contains(t, out, "Type \\help for available commands")

	out = f.run("\\history[limit=3")
	assert.Contains(t, out, "Error:")

	out = f.run("\\history[limit=many]")
	assert.Contains(t, out, "must be a number")
}

func TestShell_Help(t *testing.T) {
	f := newFixture(t, nil)

	assert.Contains(t, f.run("\\help"), "Shell Commands")
	assert.Contains(t, f.run("\\help scroll"), "scroll")

	out := f.run("\\help cooking")
	assert.Contains(t, out, "help topic not found")
	assert.Contains(t, out, "automation, scroll, shell")

	assert.Contains(t, f.run("\\examples"), "Open YouTube and search relaxing music")
	out = f.run("\\examples scroll")
	assert.Contains(t, out, "Stop scrolling")
	assert.NotContains(t, out, "Open YouTube")
	assert.Contains(t, f.run("\\examples knitting"), "no examples")
}

func TestShell_TabsAndQueue(t *testing.T) {
	f := newFixture(t, nil)

	assert.Contains(t, f.run("\\tabs"), "No tabs open")
	f.run("open spotify")
	assert.Contains(t, f.run("\\tabs"), "1 open tab(s)")

	assert.Contains(t, f.run("\\close-tabs"), "Closed 1 tab(s)")
	assert.True(t, f.env.Tabs()[0].Closed())
	assert.Contains(t, f.run("\\tabs"), "No tabs open")

	assert.Contains(t, f.run("\\queue"), "Automation idle, 0 queued command(s)")
	assert.Contains(t, f.run("\\clear-queue"), "Command queue cleared")
}

func TestShell_History(t *testing.T) {
	f := newFixture(t, nil)

	assert.Contains(t, f.run("\\history"), "No commands executed yet")
	f.run("open spotify")
	f.run("open example.org")

	out := f.run("\\history[limit=1]")
	assert.Contains(t, out, "Opening https://example.org")
	assert.NotContains(t, out, "spotify")

	out = f.run("\\history")
	assert.Contains(t, out, "spotify")
}

func TestShell_EnableDisable(t *testing.T) {
	f := newFixture(t, nil)

	assert.Contains(t, f.run("\\disable"), "Automation disabled")
	assert.Contains(t, f.run("open spotify"), "Automation is currently disabled")
	assert.Empty(t, f.env.OpenedURLs())

	assert.Contains(t, f.run("\\enable"), "Automation enabled")
	f.run("open spotify")
	assert.Len(t, f.env.OpenedURLs(), 1)
}

func TestShell_ScrollBuiltins(t *testing.T) {
	f := newFixture(t, nil)

	assert.Contains(t, f.run("\\stop"), "Not scrolling")

	f.run("auto scroll down")
	require.True(t, f.d.ScrollEngine().IsCurrentlyScrolling())
	assert.Contains(t, f.run("\\scroll-status"), "Scrolling: autoScroll down")
	assert.Contains(t, f.run("\\stop"), "Scrolling stopped")
	assert.False(t, f.d.ScrollEngine().IsCurrentlyScrolling())

	f.run("scroll to bottom")
	out := f.run("\\scroll-status")
	assert.Contains(t, out, "Not scrolling")
	assert.Contains(t, out, "Position: 100%")
}

func TestShell_Sessions(t *testing.T) {
	f := newFixture(t, nil)

	assert.Contains(t, f.run("\\sessions"), "No chat sessions")
	f.run("open spotify")
	f.run("\\new")
	f.run("volume up")

	out := f.run("\\sessions")
	assert.Contains(t, out, "open spotify")
	assert.Contains(t, out, "volume up")
	assert.Contains(t, out, "2 sessions, 4 messages")

	out = f.run("\\sessions spotify")
	assert.Contains(t, out, "open spotify")
	assert.NotContains(t, out, "volume up (")

	assert.Contains(t, f.run("\\sessions[filter=starred]"), "No chat sessions")
}

func TestShell_ExportImport(t *testing.T) {
	f := newFixture(t, nil)
	f.run("open spotify")

	path := filepath.Join(t.TempDir(), "chats.json")
	assert.Contains(t, f.run("\\export "+path), "exported to")
	_, err := os.Stat(path)
	require.NoError(t, err)

	assert.Contains(t, f.run("\\import "+path), "Successfully imported 1 conversations")
	sessions, err := f.chats.GetAllSessions()
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	assert.Contains(t, f.run("\\export"), "usage: \\export <file>")
	assert.Contains(t, f.run("\\import "+filepath.Join(t.TempDir(), "missing.json")), "Error:")
}

func TestShell_VoiceAndProvider(t *testing.T) {
	f := newFixture(t, &stubClient{reply: "ok"})

	out := f.run("\\voice")
	assert.Contains(t, out, "friday")
	assert.Contains(t, out, "Speech on")

	assert.Contains(t, f.run("\\voice friday"), "Voice profile changed to FRIDAY")
	assert.Equal(t, "friday", f.voice.CurrentProfile().ID)
	assert.Contains(t, f.run("\\voice ultron"), "unknown voice profile")

	assert.Contains(t, f.run("\\voice off"), "Speech off")
	f.run("open spotify")
	assert.Empty(t, f.speaker.Lines())

	assert.Contains(t, f.run("\\provider"), "Current provider: groq")
	assert.Contains(t, f.run("\\provider Gemini"), "AI provider set to gemini")
	assert.Contains(t, f.run("\\provider skynet"), "Error:")
}

func TestShell_MissingServices(t *testing.T) {
	d := automation.NewDispatcher(testutils.NewFakeEnvironment(800, 4000), automation.WithTimeUnit(time.Microsecond))
	t.Cleanup(d.Close)
	s := New(d, nil)
	out := &recordingPrinter{}

	for _, input := range []string{"\\sessions", "\\voice", "\\provider", "\\help"} {
		out.Reset()
		s.Execute(context.Background(), out, input)
		assert.Contains(t, out.String(), "not available", "input %q", input)
	}

	out.Reset()
	s.Execute(context.Background(), out, "tell me a joke")
	assert.Contains(t, out.String(), "Configure an AI provider key")
}

func TestShell_Exit(t *testing.T) {
	f := newFixture(t, nil)
	assert.Contains(t, f.run("\\exit"), "Goodbye.")
	assert.True(t, f.exited)
}

func TestShell_RunBatchFile(t *testing.T) {
	f := newFixture(t, nil)
	path := testutils.WriteScript(t, "morning.jarvis",
		"# morning routine",
		"",
		"open spotify",
		"open example.org",
		"\\tabs",
	)

	n, err := f.shell.RunBatchFile(context.Background(), f.out, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"https://open.spotify.com", "https://example.org"}, f.env.OpenedURLs())
	assert.Contains(t, f.out.String(), "> open spotify")
	assert.Contains(t, f.out.String(), "2 open tab(s)")
	assert.False(t, f.d.IsExecuting())

	_, err = f.shell.RunBatchFile(context.Background(), f.out, filepath.Join(t.TempDir(), "nope.jarvis"))
	assert.Error(t, err)
}

func TestShell_RunBatchCancelled(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := f.shell.RunBatch(ctx, f.out, strings.NewReader("open spotify\n"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Empty(t, f.env.OpenedURLs())
}
