package scroll

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/testutils"
	"jarvis/pkg/jarvistypes"
)

func newTestEngine(t *testing.T, env *testutils.FakeEnvironment) *Engine {
	t.Helper()
	e := NewEngine(env, WithTimeUnit(time.Microsecond))
	t.Cleanup(e.Close)
	return e
}

func waitIdle(t *testing.T, e *Engine) {
	t.Helper()
	require.Eventually(t, func() bool { return !e.IsCurrentlyScrolling() }, 2*time.Second, time.Millisecond)
}

func TestEngine_PlainScroll(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 5000)
	e := newTestEngine(t, env)
	ctx := context.Background()

	resp := e.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{Type: jarvistypes.ScrollPlain, Direction: jarvistypes.DirectionDown, Smooth: true})
	assert.True(t, resp.Success)
	assert.Equal(t, "Scrolled down by 300px", resp.Message)
	require.NotNil(t, resp.Position)
	assert.Equal(t, 300, resp.Position.Y)

	resp = e.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{Type: jarvistypes.ScrollPlain, Direction: jarvistypes.DirectionUp, Amount: 100})
	assert.Equal(t, "Scrolled up by 100px", resp.Message)
	assert.Equal(t, 200, env.ScrollY())

	resp = e.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{Type: jarvistypes.ScrollPlain, Direction: jarvistypes.DirectionBottom})
	assert.Equal(t, "Scrolled to bottom", resp.Message)
	assert.Equal(t, 4200, env.ScrollY())

	resp = e.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{Type: jarvistypes.ScrollPlain, Direction: jarvistypes.DirectionTop})
	assert.Equal(t, "Scrolled to top", resp.Message)
	assert.Equal(t, 0, env.ScrollY())
}

func TestEngine_StopScrollingIsIdempotent(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 5000)
	e := newTestEngine(t, env)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		e.StopScrolling(ctx)
		e.StopScrolling(ctx)
	})
	assert.False(t, e.IsCurrentlyScrolling())
	assert.Nil(t, e.CurrentCommand())
}

func TestEngine_AutoScrollStopsAfterDuration(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 100000)
	e := newTestEngine(t, env)

	resp := e.ExecuteScrollCommand(context.Background(), jarvistypes.ScrollCommand{
		Type:      jarvistypes.ScrollAuto,
		Direction: jarvistypes.DirectionDown,
		Speed:     1000,
		Duration:  2000,
	})
	require.True(t, resp.Success)
	assert.Equal(t, "Started auto-scrolling down for 2s", resp.Message)

	waitIdle(t, e)
	assert.LessOrEqual(t, env.ScrollCount(), 2)
	assert.Equal(t, 600, env.ScrollY())

	done := e.LastCompletion()
	require.NotNil(t, done)
	assert.True(t, done.Completed)
	assert.True(t, strings.HasPrefix(done.Message, "Auto-scroll completed. Scrolled 2 times in "), done.Message)
	assert.Empty(t, env.Indicators())
}

func TestEngine_AutoScrollReachesEnd(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 1000)
	e := newTestEngine(t, env)

	resp := e.ExecuteScrollCommand(context.Background(), jarvistypes.ScrollCommand{Type: jarvistypes.ScrollAuto, Direction: jarvistypes.DirectionDown})
	require.True(t, resp.Success)
	assert.Equal(t, "Started auto-scrolling down for 20s", resp.Message)

	waitIdle(t, e)
	done := e.LastCompletion()
	require.NotNil(t, done)
	assert.Equal(t, "Auto-scroll reached the end after 2 scrolls.", done.Message)
	assert.Equal(t, 200, env.ScrollY())
}

func TestEngine_ParsedAutoScrollReturnsToIdle(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 100000)
	e := newTestEngine(t, env)

	cmd := ParseScrollCommand("auto scroll down")
	require.NotNil(t, cmd)

	resp := e.ExecuteScrollCommand(context.Background(), *cmd)
	require.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.Message, "Started auto-scrolling down"))

	waitIdle(t, e)
	assert.Equal(t, 10, env.ScrollCount())
	require.NotNil(t, e.LastCompletion())
}

func TestEngine_NewCommandStopsActiveAutoScroll(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 1000000)
	e := NewEngine(env, WithTimeUnit(time.Millisecond))
	t.Cleanup(e.Close)
	ctx := context.Background()

	e.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{Type: jarvistypes.ScrollAuto, Direction: jarvistypes.DirectionDown, Speed: 1000, Duration: 60000})
	require.True(t, e.IsCurrentlyScrolling())
	require.NotNil(t, e.CurrentCommand())

	resp := e.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{Type: jarvistypes.ScrollPlain, Direction: jarvistypes.DirectionTop})
	assert.True(t, resp.Success)
	assert.False(t, e.IsCurrentlyScrolling())
	assert.Nil(t, e.LastCompletion())
	assert.Greater(t, env.IndicatorsCleared, 0)

	e.StopScrolling(ctx)
	assert.False(t, e.IsCurrentlyScrolling())
}

func TestEngine_CurrentCommandClearedAfterOneShotScrolls(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 100000)
	e := newTestEngine(t, env)
	ctx := context.Background()

	resp := e.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{Type: jarvistypes.ScrollPlain, Direction: jarvistypes.DirectionDown})
	require.True(t, resp.Success)
	assert.Nil(t, e.CurrentCommand())

	resp = e.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{Type: jarvistypes.ScrollSmart, Direction: jarvistypes.DirectionDown})
	require.True(t, resp.Success)
	assert.Nil(t, e.CurrentCommand())

	resp = e.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{Type: jarvistypes.ScrollPlain, Direction: "sideways"})
	require.False(t, resp.Success)
	assert.Nil(t, e.CurrentCommand())

	resp = e.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{Type: jarvistypes.ScrollAuto, Direction: jarvistypes.DirectionDown, Duration: 60000})
	require.True(t, resp.Success)
	current := e.CurrentCommand()
	require.NotNil(t, current)
	assert.Equal(t, jarvistypes.ScrollAuto, current.Type)

	e.StopScrolling(ctx)
	assert.Nil(t, e.CurrentCommand())
}

func TestEngine_AutoScrollErrorIsUnsuccessful(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 100000)
	env.FailWith("ScrollBy", errors.New("target closed"))
	e := newTestEngine(t, env)

	resp := e.ExecuteScrollCommand(context.Background(), jarvistypes.ScrollCommand{Type: jarvistypes.ScrollAuto, Direction: jarvistypes.DirectionDown})
	require.True(t, resp.Success)

	waitIdle(t, e)
	done := e.LastCompletion()
	require.NotNil(t, done)
	assert.False(t, done.Success)
	assert.True(t, done.Completed)
	assert.Equal(t, "Scroll error: target closed", done.Message)
	assert.Nil(t, e.CurrentCommand())
}

func TestEngine_ConcurrentAutoScrollsLeaveOneRun(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 1000000)
	e := newTestEngine(t, env)
	ctx := context.Background()
	cmd := jarvistypes.ScrollCommand{Type: jarvistypes.ScrollAuto, Direction: jarvistypes.DirectionDown, Duration: 60000}

	for i := 0; i < 20; i++ {
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				e.ExecuteScrollCommand(ctx, cmd)
			}()
		}
		wg.Wait()

		e.StopScrolling(ctx)
		count := env.ScrollCount()
		time.Sleep(20 * time.Millisecond)
		require.Equal(t, count, env.ScrollCount(), "no auto-scroll may outlive StopScrolling (round %d)", i)
		require.False(t, e.IsCurrentlyScrolling())
		require.Nil(t, e.CurrentCommand())
	}
}

func TestEngine_ScrollPercentageRoundTrip(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 3000)
	e := newTestEngine(t, env)
	ctx := context.Background()

	resp, err := e.ScrollToPercentage(ctx, 50, true)
	require.NoError(t, err)
	assert.Equal(t, "Scrolled to 50% of page", resp.Message)

	pct, err := e.GetScrollPercentage(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 50, pct, 0.1)
}

func TestEngine_ScrollPercentageNonScrollablePage(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 800)
	e := newTestEngine(t, env)
	ctx := context.Background()

	_, err := e.ScrollToPercentage(ctx, 50, true)
	require.NoError(t, err)

	pct, err := e.GetScrollPercentage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pct)
}

func TestEngine_ParsedPercentageScrollsToOffset(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 3000)
	e := newTestEngine(t, env)

	cmd := ParseScrollCommand("scroll to 75%")
	require.NotNil(t, cmd)

	resp := e.ExecuteScrollCommand(context.Background(), *cmd)
	assert.True(t, resp.Success)
	assert.Equal(t, "Scrolled to 75% of page", resp.Message)
	assert.Equal(t, 1650, env.ScrollY())
}

func TestEngine_SmartScrollTargetBySelector(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 5000)
	comments := env.AddElement("section", "Comments", 3000, 400, map[string]string{"id": "comments", "style": "color: red;"})
	e := NewEngine(env, WithTimeUnit(100*time.Microsecond))
	t.Cleanup(e.Close)

	resp := e.ExecuteScrollCommand(context.Background(), jarvistypes.ScrollCommand{Type: jarvistypes.ScrollSmart, Target: "#comments"})
	assert.True(t, resp.Success)
	assert.Equal(t, "Scrolled to element: #comments", resp.Message)
	assert.Equal(t, 2800, env.ScrollY())
	assert.Contains(t, comments.CurrentStyle(), "outline: 3px solid #00d4ff")

	require.Eventually(t, func() bool { return comments.CurrentStyle() == "color: red;" }, 2*time.Second, time.Millisecond)
}

func TestEngine_SmartScrollTargetByInnermostText(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 5000)
	env.AddElement("body", "Intro text Pricing plans and more", 0, 5000, nil)
	env.AddElement("section", "Pricing plans and more", 1000, 1500, nil)
	heading := env.AddElement("h2", "Pricing", 1200, 60, nil)
	e := newTestEngine(t, env)

	resp := e.ExecuteScrollCommand(context.Background(), jarvistypes.ScrollCommand{Type: jarvistypes.ScrollSmart, Target: "pricing"})
	assert.True(t, resp.Success)

	scrolled := env.ScrolledInto()
	require.Len(t, scrolled, 1)
	assert.Same(t, heading, scrolled[0])
}

func TestEngine_SmartScrollTargetByHeuristicSelector(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 5000)
	footer := env.AddElement("div", "", 4500, 200, map[string]string{"id": "site-footer"})
	e := newTestEngine(t, env)

	resp := e.ExecuteScrollCommand(context.Background(), jarvistypes.ScrollCommand{Type: jarvistypes.ScrollSmart, Target: "footer"})
	assert.True(t, resp.Success)
	assert.Equal(t, []*testutils.FakeElement{footer}, env.ScrolledInto())
}

func TestEngine_SmartScrollTargetNotFound(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 5000)
	e := newTestEngine(t, env)

	resp := e.ExecuteScrollCommand(context.Background(), jarvistypes.ScrollCommand{Type: jarvistypes.ScrollSmart, Target: "missing"})
	assert.False(t, resp.Success)
	assert.Equal(t, `Element "missing" not found`, resp.Message)
}

func TestEngine_SmartScrollNearestBlockBelow(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 5000)
	env.AddElement("h1", "Title", 0, 80, nil)
	env.AddElement("p", "tiny", 300, 20, nil)
	next := env.AddElement("section", "Second", 900, 400, nil)
	env.AddElement("section", "Third", 1800, 400, nil)
	e := newTestEngine(t, env)

	resp := e.ExecuteScrollCommand(context.Background(), jarvistypes.ScrollCommand{Type: jarvistypes.ScrollSmart, Direction: jarvistypes.DirectionDown})
	assert.True(t, resp.Success)
	assert.Equal(t, "Smart scrolled to next content section", resp.Message)
	assert.Equal(t, []*testutils.FakeElement{next}, env.ScrolledInto())
	assert.Equal(t, 900, env.ScrollY())
}

func TestEngine_SmartScrollFallsBackToPlain(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 5000)
	e := newTestEngine(t, env)

	resp := e.ExecuteScrollCommand(context.Background(), jarvistypes.ScrollCommand{Type: jarvistypes.ScrollSmart, Direction: jarvistypes.DirectionDown})
	assert.True(t, resp.Success)
	assert.Equal(t, "Scrolled down by 300px", resp.Message)
}

func TestEngine_FailuresBecomeResponses(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 5000)
	env.FailWith("ScrollState", errors.New("page crashed"))
	e := newTestEngine(t, env)

	resp := e.ExecuteScrollCommand(context.Background(), jarvistypes.ScrollCommand{Type: jarvistypes.ScrollPlain, Direction: jarvistypes.DirectionDown})
	assert.False(t, resp.Success)
	assert.Equal(t, "Scroll error: page crashed", resp.Message)

	resp = e.ExecuteScrollCommand(context.Background(), jarvistypes.ScrollCommand{Type: "spin"})
	assert.False(t, resp.Success)
	assert.Equal(t, "Unknown scroll type: spin", resp.Message)
}

func TestEngine_Disabled(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 5000)
	e := newTestEngine(t, env)
	ctx := context.Background()

	e.SetEnabled(ctx, false)
	resp := e.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{Type: jarvistypes.ScrollPlain, Direction: jarvistypes.DirectionDown})
	assert.False(t, resp.Success)
	assert.Equal(t, 0, env.ScrollCount())

	e.SetEnabled(ctx, true)
	resp = e.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{Type: jarvistypes.ScrollPlain, Direction: jarvistypes.DirectionDown})
	assert.True(t, resp.Success)
}

func TestEngine_HistoryIsBounded(t *testing.T) {
	env := testutils.NewFakeEnvironment(800, 100000)
	e := newTestEngine(t, env)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		e.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{Type: jarvistypes.ScrollPlain, Direction: jarvistypes.DirectionDown, Amount: 10})
	}

	history := e.ScrollHistory()
	require.Len(t, history, 50)
	assert.Equal(t, 600, history[len(history)-1].Y)
}
