package automation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"jarvis/pkg/jarvistypes"
)

const (
	textPreviewRunes = 1000
	linkPreview      = 20
	imagePreview     = 10
)

// Link is one anchor found on the page.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Image is one image found on the page.
type Image struct {
	Alt string `json:"alt"`
	Src string `json:"src"`
}

// TextResult is the data of a text extraction.
type TextResult struct {
	Text       string `json:"text"`
	FullLength int    `json:"fullLength"`
}

// CountResult is the data of an element count.
type CountResult struct {
	Count    int    `json:"count"`
	Selector string `json:"selector"`
}

// LinksResult holds the first links of the page and the total.
type LinksResult struct {
	Links []Link `json:"links"`
	Total int    `json:"total"`
}

// ImagesResult holds the first images of the page and the total.
type ImagesResult struct {
	Images []Image `json:"images"`
	Total  int     `json:"total"`
}

// PageSummary is the data of a page information request.
type PageSummary struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Domain       string `json:"domain"`
	WordCount    int    `json:"wordCount"`
	LinkCount    int    `json:"linkCount"`
	ImageCount   int    `json:"imageCount"`
	LastModified string `json:"lastModified"`
}

func (d *Dispatcher) handleContentAnalysis(ctx context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	switch cmd.Action {
	case "extractText":
		selector := cmd.StringParam("selector", "body")
		text, found, err := d.elementText(ctx, selector)
		if err != nil {
			return queryFailure(selector, err), nil
		}
		if !found {
			return jarvistypes.Failed("Element not found: " + selector), nil
		}
		n := utf8.RuneCountInString(text)
		return jarvistypes.Succeeded(
			fmt.Sprintf("Extracted %d characters of text", n),
			TextResult{Text: truncateRunes(text, textPreviewRunes), FullLength: n},
		), nil

	case "countElements":
		selector := cmd.StringParam("selector", "*")
		elements, err := d.env.QuerySelectorAll(ctx, selector)
		if err != nil {
			return queryFailure(selector, err), nil
		}
		return jarvistypes.Succeeded(
			fmt.Sprintf("Found %d elements matching %q", len(elements), selector),
			CountResult{Count: len(elements), Selector: selector},
		), nil

	case "findLinks":
		links, err := d.links(ctx)
		if err != nil {
			return jarvistypes.AutomationResponse{}, err
		}
		return jarvistypes.Succeeded(
			fmt.Sprintf("Found %d links on the page", len(links)),
			LinksResult{Links: links[:min(len(links), linkPreview)], Total: len(links)},
		), nil

	case "findImages":
		images, err := d.images(ctx)
		if err != nil {
			return jarvistypes.AutomationResponse{}, err
		}
		return jarvistypes.Succeeded(
			fmt.Sprintf("Found %d images on the page", len(images)),
			ImagesResult{Images: images[:min(len(images), imagePreview)], Total: len(images)},
		), nil

	case "pageInfo":
		summary, err := d.pageSummary(ctx)
		if err != nil {
			return jarvistypes.AutomationResponse{}, err
		}
		return jarvistypes.Succeeded("Page information extracted", summary), nil
	}
	return unknownAction("content analysis", cmd.Action), nil
}

// elementText returns the text of the first element matching selector.
func (d *Dispatcher) elementText(ctx context.Context, selector string) (string, bool, error) {
	el, err := d.env.QuerySelector(ctx, selector)
	if err != nil || el == nil {
		return "", false, err
	}
	text, err := el.TextContent(ctx)
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func (d *Dispatcher) links(ctx context.Context) ([]Link, error) {
	elements, err := d.env.QuerySelectorAll(ctx, "a[href]")
	if err != nil {
		return nil, err
	}
	links := make([]Link, 0, len(elements))
	for _, el := range elements {
		text, _ := el.TextContent(ctx)
		href, _ := el.Attribute(ctx, "href")
		links = append(links, Link{Text: strings.TrimSpace(text), Href: href})
	}
	return links, nil
}

func (d *Dispatcher) images(ctx context.Context) ([]Image, error) {
	elements, err := d.env.QuerySelectorAll(ctx, "img[src]")
	if err != nil {
		return nil, err
	}
	images := make([]Image, 0, len(elements))
	for _, el := range elements {
		alt, _ := el.Attribute(ctx, "alt")
		src, _ := el.Attribute(ctx, "src")
		images = append(images, Image{Alt: alt, Src: src})
	}
	return images, nil
}

func (d *Dispatcher) pageSummary(ctx context.Context) (PageSummary, error) {
	info, err := d.env.PageInfo(ctx)
	if err != nil {
		return PageSummary{}, err
	}
	body, _, err := d.elementText(ctx, "body")
	if err != nil {
		return PageSummary{}, err
	}
	links, err := d.env.QuerySelectorAll(ctx, "a[href]")
	if err != nil {
		return PageSummary{}, err
	}
	images, err := d.env.QuerySelectorAll(ctx, "img[src]")
	if err != nil {
		return PageSummary{}, err
	}
	return PageSummary{
		Title:        info.Title,
		URL:          info.URL,
		Domain:       info.Hostname,
		WordCount:    len(strings.Fields(body)),
		LinkCount:    len(links),
		ImageCount:   len(images),
		LastModified: info.LastModified,
	}, nil
}

func queryFailure(selector string, err error) jarvistypes.AutomationResponse {
	return jarvistypes.Failed(fmt.Sprintf("Invalid selector %q: %v", selector, err))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
