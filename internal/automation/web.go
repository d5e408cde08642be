package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/google/uuid"

	"jarvis/internal/catalog"
	"jarvis/pkg/jarvistypes"
)

// BookmarksKey is the storage key holding saved bookmarks as a JSON array.
const BookmarksKey = "jarvis-bookmarks"

const webTextPreview = 100

// ArticleSummary is the readable-content digest of the current page.
type ArticleSummary struct {
	Title    string `json:"title"`
	Byline   string `json:"byline"`
	Excerpt  string `json:"excerpt"`
	Length   int    `json:"length"`
	SiteName string `json:"siteName"`
}

// Screenshot is the data of a saved screenshot.
type Screenshot struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// Bookmark is a saved page.
type Bookmark struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (d *Dispatcher) handleAIAssisted(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	switch cmd.Action {
	case "contentSummary":
		return d.summarize(ctx)

	case "translatePage":
		language := cmd.StringParam("targetLanguage", "en")
		info, err := d.env.PageInfo(ctx)
		if err != nil {
			return jarvistypes.AutomationResponse{}, err
		}
		target := fmt.Sprintf("https://translate.google.com/translate?sl=auto&tl=%s&u=%s",
			catalog.EncodeURIComponent(language), catalog.EncodeURIComponent(info.URL))
		if _, err := d.openTracked(ctx, "translate-"+d.stamp(), target); err != nil {
			return browserFailure(err, "Failed to open translation. Please check if pop-ups are blocked.")
		}
		return jarvistypes.Succeeded("Translating page to "+language, map[string]any{"url": target}), nil

	case "findSimilar":
		query := cmd.StringParam("query", "")
		info, err := d.env.PageInfo(ctx)
		if err != nil {
			return jarvistypes.AutomationResponse{}, err
		}
		target := "https://www.google.com/search?q=related:" + catalog.EncodeURIComponent(info.URL)
		if query != "" {
			target += "%20" + catalog.EncodeURIComponent(query)
		}
		if _, err := d.openTracked(ctx, "similar-"+d.stamp(), target); err != nil {
			return browserFailure(err, "Failed to open search. Please check if pop-ups are blocked.")
		}
		return jarvistypes.Succeeded("Finding similar content for: "+query, map[string]any{"url": target}), nil

	case "smartBookmark":
		return d.bookmark(ctx, cmd)
	}
	return unknownAction("AI-assisted", cmd.Action), nil
}

// summarize extracts the readable article of the current page.
func (d *Dispatcher) summarize(ctx context.Context) (jarvistypes.AutomationResponse, error) {
	info, err := d.env.PageInfo(ctx)
	if err != nil {
		return jarvistypes.AutomationResponse{}, err
	}
	html, err := d.env.HTML(ctx)
	if err != nil {
		return jarvistypes.AutomationResponse{}, err
	}
	pageURL, _ := url.Parse(info.URL)

	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		d.log.Warn("Readability failed", "url", info.URL, "error", err)
		return jarvistypes.Failed(fmt.Sprintf("Could not summarize page: %v", err)), nil
	}
	return jarvistypes.Succeeded("Content summary generated", ArticleSummary{
		Title:    article.Title,
		Byline:   article.Byline,
		Excerpt:  article.Excerpt,
		Length:   article.Length,
		SiteName: article.SiteName,
	}), nil
}

func (d *Dispatcher) bookmark(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	if d.storage == nil {
		return jarvistypes.Failed("Bookmark storage is not configured"), nil
	}
	info, err := d.env.PageInfo(ctx)
	if err != nil {
		return jarvistypes.AutomationResponse{}, err
	}

	b := Bookmark{
		ID:        uuid.NewString(),
		Name:      cmd.StringParam("name", info.Title),
		URL:       cmd.StringParam("url", info.URL),
		Title:     info.Title,
		Tags:      cmd.StringsParam("tags"),
		CreatedAt: d.now(),
	}
	existing, err := LoadBookmarks(d.storage)
	if err != nil {
		return jarvistypes.AutomationResponse{}, err
	}
	data, err := json.Marshal(append(existing, b))
	if err != nil {
		return jarvistypes.AutomationResponse{}, fmt.Errorf("failed to encode bookmarks: %w", err)
	}
	if err := d.storage.SetItem(BookmarksKey, string(data)); err != nil {
		return jarvistypes.AutomationResponse{}, fmt.Errorf("failed to save bookmark: %w", err)
	}

	message := fmt.Sprintf("Smart bookmark created for %s", b.URL)
	if len(b.Tags) > 0 {
		message += " with tags: " + strings.Join(b.Tags, ", ")
	}
	return jarvistypes.Succeeded(message, b), nil
}

// LoadBookmarks returns the bookmarks saved in storage, oldest first.
func LoadBookmarks(storage jarvistypes.Storage) ([]Bookmark, error) {
	raw, ok, err := storage.GetItem(BookmarksKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmarks: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var bookmarks []Bookmark
	if err := json.Unmarshal([]byte(raw), &bookmarks); err != nil {
		return nil, fmt.Errorf("failed to decode bookmarks: %w", err)
	}
	return bookmarks, nil
}

func (d *Dispatcher) handleWebAutomation(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	switch cmd.Action {
	case "clickElement":
		selector := cmd.StringParam("selector", "")
		el, err := d.env.QuerySelector(ctx, selector)
		if err != nil {
			return queryFailure(selector, err), nil
		}
		if el == nil {
			return jarvistypes.Failed("Element not found: " + selector), nil
		}
		if err := el.Click(ctx); err != nil {
			return jarvistypes.Failed(fmt.Sprintf("Error clicking element: %v", err)), nil
		}
		return jarvistypes.Succeeded("Clicked element: "+selector, nil), nil

	case "extractText":
		selector := cmd.StringParam("selector", "body")
		text, found, err := d.elementText(ctx, selector)
		if err != nil {
			return queryFailure(selector, err), nil
		}
		if !found {
			return jarvistypes.Failed("Element not found: " + selector), nil
		}
		return jarvistypes.Succeeded("Extracted text: "+truncateRunes(text, webTextPreview)+"...", text), nil

	case "takeScreenshot":
		return d.screenshot(ctx)

	case "autoScroll":
		direction := jarvistypes.Direction(cmd.StringParam("direction", string(jarvistypes.DirectionDown)))
		return fromScroll(d.scroller.ExecuteScrollCommand(ctx, jarvistypes.ScrollCommand{
			Type:       jarvistypes.ScrollAuto,
			Direction:  direction,
			Speed:      cmd.IntParam("speed", 0),
			Duration:   cmd.IntParam("duration", 0),
			Smooth:     true,
			Continuous: true,
		})), nil
	}
	return unknownAction("web automation", cmd.Action), nil
}

// screenshot captures the page as PNG into the screenshot directory.
func (d *Dispatcher) screenshot(ctx context.Context) (jarvistypes.AutomationResponse, error) {
	data, err := d.env.Screenshot(ctx)
	if err != nil {
		return browserFailure(err, "Screenshot not supported")
	}
	if err := os.MkdirAll(d.screenshotDir, 0o755); err != nil {
		return jarvistypes.AutomationResponse{}, fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	path := filepath.Join(d.screenshotDir, "jarvis-screenshot-"+d.stamp()+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return jarvistypes.AutomationResponse{}, fmt.Errorf("failed to write screenshot: %w", err)
	}
	return jarvistypes.Succeeded("Screenshot saved to "+path, Screenshot{Path: path, Bytes: len(data)}), nil
}
