package scroll

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"jarvis/pkg/jarvistypes"
)

// contentSelector lists the blocks smart scrolling can land on.
const contentSelector = "article, .article, .post, .content, .main-content, main, " +
	"h1, h2, h3, h4, h5, h6, " +
	"section, .section, .container, .wrapper, " +
	"p"

const highlightCSS = "outline: 3px solid #00d4ff !important; outline-offset: 2px !important; " +
	"background-color: rgba(0, 212, 255, 0.1) !important; transition: all 0.3s ease !important;"

const minBlockHeight = 50

func (e *Engine) smartScroll(ctx context.Context, cmd jarvistypes.ScrollCommand) (jarvistypes.ScrollResponse, error) {
	if cmd.Target != "" {
		return e.scrollToElement(ctx, cmd.Target)
	}
	return e.intelligentScroll(ctx, cmd)
}

// findTarget resolves a target by selector, then by text, then by heuristic selectors.
// Selector errors count as no match so the next strategy is tried.
func (e *Engine) findTarget(ctx context.Context, target string) jarvistypes.Element {
	if el, err := e.page.QuerySelector(ctx, target); err == nil && el != nil {
		return el
	}

	if matches, err := e.page.QueryText(ctx, target); err == nil && len(matches) > 0 {
		if el := innermost(ctx, matches); el != nil {
			return el
		}
	}

	quoted := strings.ReplaceAll(target, `"`, `\"`)
	heuristics := []string{
		fmt.Sprintf(`[id*="%s"]`, quoted),
		fmt.Sprintf(`[class*="%s"]`, quoted),
		"." + target,
		"#" + target,
	}
	for _, sel := range heuristics {
		if el, err := e.page.QuerySelector(ctx, sel); err == nil && el != nil {
			return el
		}
	}
	return nil
}

// innermost picks the element with the shortest text. Ancestors contain their descendants'
// text, so the shortest match is the deepest one; ties go to the later element in document order.
func innermost(ctx context.Context, elements []jarvistypes.Element) jarvistypes.Element {
	var (
		best    jarvistypes.Element
		bestLen = -1
	)
	for _, el := range elements {
		text, err := el.TextContent(ctx)
		if err != nil {
			continue
		}
		if n := len(strings.TrimSpace(text)); bestLen < 0 || n <= bestLen {
			best, bestLen = el, n
		}
	}
	return best
}

func (e *Engine) scrollToElement(ctx context.Context, target string) (jarvistypes.ScrollResponse, error) {
	el := e.findTarget(ctx, target)
	if el == nil {
		return jarvistypes.ScrollResponse{Success: false, Message: fmt.Sprintf("Element \"%s\" not found", target)}, nil
	}

	if err := el.ScrollIntoView(ctx, "center"); err != nil {
		return jarvistypes.ScrollResponse{Success: false, Message: fmt.Sprintf("Error scrolling to element: %v", err)}, nil
	}
	e.highlight(ctx, el)

	pos, err := e.position(ctx)
	if err != nil {
		return jarvistypes.ScrollResponse{}, err
	}
	return jarvistypes.ScrollResponse{
		Success:  true,
		Message:  fmt.Sprintf("Scrolled to element: %s", target),
		Position: pos,
	}, nil
}

type candidate struct {
	el   jarvistypes.Element
	rect jarvistypes.Rect
}

func (e *Engine) intelligentScroll(ctx context.Context, cmd jarvistypes.ScrollCommand) (jarvistypes.ScrollResponse, error) {
	state, err := e.page.ScrollState(ctx)
	if err != nil {
		return jarvistypes.ScrollResponse{}, err
	}
	elements, err := e.page.QuerySelectorAll(ctx, contentSelector)
	if err != nil {
		return jarvistypes.ScrollResponse{}, err
	}

	vh := float64(state.ViewportHeight)
	var candidates []candidate
	for _, el := range elements {
		rect, rerr := el.Rect(ctx)
		if rerr != nil || rect.Height <= minBlockHeight {
			continue
		}
		switch cmd.Direction {
		case jarvistypes.DirectionDown:
			if rect.Top > vh*0.2 {
				candidates = append(candidates, candidate{el, rect})
			}
		case jarvistypes.DirectionUp:
			if rect.Bottom < vh*0.8 {
				candidates = append(candidates, candidate{el, rect})
			}
		}
	}

	if len(candidates) == 0 {
		return e.basicScroll(ctx, cmd)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if cmd.Direction == jarvistypes.DirectionUp {
			return candidates[i].rect.Top > candidates[j].rect.Top
		}
		return candidates[i].rect.Top < candidates[j].rect.Top
	})

	target := candidates[0].el
	if err := target.ScrollIntoView(ctx, "start"); err != nil {
		return jarvistypes.ScrollResponse{}, err
	}
	e.highlight(ctx, target)

	pos, err := e.position(ctx)
	if err != nil {
		return jarvistypes.ScrollResponse{}, err
	}
	return jarvistypes.ScrollResponse{
		Success:  true,
		Message:  "Smart scrolled to next content section",
		Position: pos,
	}, nil
}

// highlight outlines el and restores its original style after two seconds, or on Close.
func (e *Engine) highlight(ctx context.Context, el jarvistypes.Element) {
	original, err := el.Style(ctx)
	if err != nil {
		return
	}
	if err := el.SetStyle(ctx, original+highlightCSS); err != nil {
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		t := time.NewTimer(highlightMillis * e.unit)
		defer t.Stop()
		select {
		case <-t.C:
		case <-e.ctx.Done():
		}
		_ = el.SetStyle(context.WithoutCancel(ctx), original)
	}()
}
