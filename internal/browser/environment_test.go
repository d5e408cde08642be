package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/scroll"
	"jarvis/pkg/jarvistypes"
)

func TestHostname(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/results?search_query=go", "www.youtube.com"},
		{"http://localhost:8080/page", "localhost"},
		{"about:blank", ""},
		{"::not a url", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, hostname(tt.url))
		})
	}
}

const testPage = `<!doctype html>
<html><head><title>Scroll Test</title></head>
<body style="margin:0">
<h1 id="intro">Introduction</h1>
<div style="height:4000px">filler</div>
<h2 id="pricing">Pricing plans</h2>
<a href="/docs">Docs</a>
<video></video>
</body></html>`

// launchForTest starts a headless browser. Set JARVIS_BROWSER_TESTS=1 to run these tests.
func launchForTest(t *testing.T) (*Environment, string) {
	t.Helper()
	if os.Getenv("JARVIS_BROWSER_TESTS") == "" {
		t.Skip("set JARVIS_BROWSER_TESTS=1 to run browser tests")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(testPage))
	}))
	t.Cleanup(srv.Close)

	env, err := Launch(context.Background(), Options{Headless: true, StartURL: srv.URL})
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })
	require.NoError(t, env.page(context.Background()).WaitLoad())
	return env, srv.URL
}

func TestEnvironment_DocumentQueries(t *testing.T) {
	env, base := launchForTest(t)
	ctx := context.Background()

	info, err := env.PageInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Scroll Test", info.Title)
	assert.Equal(t, "127.0.0.1", info.Hostname)
	assert.Equal(t, base+"/", info.URL)

	el, err := env.QuerySelector(ctx, "#pricing")
	require.NoError(t, err)
	require.NotNil(t, el)
	text, err := el.TextContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Pricing plans", text)

	missing, err := env.QuerySelector(ctx, "#nothing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	matches, err := env.QueryText(ctx, "PRICING")
	require.NoError(t, err)
	assert.NotEmpty(t, matches)

	links, err := env.QuerySelectorAll(ctx, "a[href]")
	require.NoError(t, err)
	require.Len(t, links, 1)
	href, err := links[0].Property(ctx, "href")
	require.NoError(t, err)
	assert.Equal(t, base+"/docs", href)

	html, err := env.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "Introduction")

	n, err := env.ControlMedia(ctx, "pause", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	png, err := env.Screenshot(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestEnvironment_Scrolling(t *testing.T) {
	env, _ := launchForTest(t)
	ctx := context.Background()

	state, err := env.ScrollState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Y)
	assert.Greater(t, state.MaxScrollY(), 0)

	require.NoError(t, env.ScrollTo(ctx, 0, 500, false))
	require.NoError(t, env.ScrollBy(ctx, 0, 250, false))
	state, err = env.ScrollState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 750, state.Y)

	require.NoError(t, env.ShowIndicator(ctx, "Scrolling"))
	badges, err := env.QuerySelectorAll(ctx, ".jarvis-scroll-indicator")
	require.NoError(t, err)
	assert.Len(t, badges, 1)
	require.NoError(t, env.ClearIndicators(ctx))
	badges, err = env.QuerySelectorAll(ctx, ".jarvis-scroll-indicator")
	require.NoError(t, err)
	assert.Empty(t, badges)
}

func TestEnvironment_ScrollEngine(t *testing.T) {
	env, _ := launchForTest(t)
	ctx := context.Background()

	engine := scroll.NewEngine(env)
	defer engine.Close()

	resp := engine.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{
		Type:      jarvistypes.ScrollPlain,
		Direction: jarvistypes.DirectionBottom,
	})
	require.True(t, resp.Success, resp.Message)

	state, err := env.ScrollState(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.MaxScrollY(), state.Y)
}

func TestEnvironment_Tabs(t *testing.T) {
	env, base := launchForTest(t)
	ctx := context.Background()

	tab, err := env.OpenTab(ctx, base+"/other")
	require.NoError(t, err)
	assert.Equal(t, base+"/other", tab.URL())
	assert.False(t, tab.Closed())

	require.NoError(t, tab.Close())
	assert.True(t, tab.Closed())
	require.NoError(t, tab.Close())

	length, err := env.HistoryLength(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, length, 1)

	require.NoError(t, env.SetZoom(ctx, 1.5))
	require.ErrorIs(t, env.ExitFullscreen(ctx), jarvistypes.ErrUnsupported)
}

func TestEnvironment_ActivateFollowsOpenedTab(t *testing.T) {
	env, base := launchForTest(t)
	ctx := context.Background()

	tab, err := env.OpenTab(ctx, base+"/docs")
	require.NoError(t, err)
	require.True(t, env.Activate(ctx, tab))
	require.NoError(t, env.page(ctx).WaitLoad())

	info, err := env.PageInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, base+"/docs", info.URL)

	require.NoError(t, tab.Close())
	assert.False(t, env.Activate(ctx, tab))
	info, err = env.PageInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, base+"/", info.URL, "closing the active tab falls back to the initial page")
}
