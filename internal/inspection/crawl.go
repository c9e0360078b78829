package inspection

import (
	"context"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/FrameLens/backend/internal/cookies"
	"github.com/GriffinCanCode/FrameLens/backend/internal/fetch"
	"github.com/GriffinCanCode/FrameLens/backend/internal/frames"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/FrameLens/backend/internal/page"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// pending is a frame waiting to have its document loaded.
type pending struct {
	frame *frames.Element
	// parentURL is the address of the document embedding the frame.
	parentURL string
	depth     int
}

type crawler struct {
	fetcher Fetcher
	cfg     Config
	logger  *logging.Logger
	obs     Observer
	opts    fetch.Options

	mu          sync.Mutex
	topURL      string
	cookies     map[string][]cookies.Cookie
	frameErrors map[string]string
	fetched     int
}

// crawl loads rawURL and every reachable frame document.
func (c *crawler) crawl(ctx context.Context, rawURL string) (*result, error) {
	doc, err := c.fetcher.Fetch(ctx, rawURL, c.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	c.obs.FrameFetched(doc.Status)

	if !page.IsHTML(doc.Body, doc.ContentType) {
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, doc.ContentType)
	}

	parsed, err := page.Parse(doc.Body, doc.ContentType, doc.URL, "0")
	if err != nil {
		return nil, err
	}
	root := page.Root(parsed)

	c.topURL = doc.URL
	c.cookies = make(map[string][]cookies.Cookie)
	c.frameErrors = make(map[string]string)
	c.record(root.ID, doc)

	queue := c.children(root, doc.URL, 1)
	for len(queue) > 0 {
		var next []pending
		var nextMu sync.Mutex

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.cfg.Concurrency)

		for _, p := range queue {
			p := p
			if !page.Fetchable(p.frame) {
				// srcdoc and about: frames have nothing to load but may
				// embed frames that do
				nextMu.Lock()
				next = append(next, c.children(p.frame, p.parentURL, p.depth+1)...)
				nextMu.Unlock()
				continue
			}
			if !c.reserve() {
				c.fail(p.frame.ID, "frame limit reached")
				continue
			}
			g.Go(func() error {
				children := c.load(gctx, p)
				nextMu.Lock()
				next = append(next, children...)
				nextMu.Unlock()
				return nil
			})
		}

		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		queue = next
	}

	return &result{
		url:         rawURL,
		finalURL:    doc.URL,
		origin:      frames.Origin(doc.URL, ""),
		title:       parsed.Title,
		status:      doc.Status,
		root:        root,
		cookies:     c.cookies,
		frameErrors: c.frameErrors,
	}, nil
}

// load fetches the document of one frame and returns its frames.
func (c *crawler) load(ctx context.Context, p pending) []pending {
	opts := c.opts
	opts.Referer = p.parentURL

	doc, err := c.fetcher.Fetch(ctx, p.frame.URL, opts)
	if err != nil {
		c.logger.Debug("Frame fetch failed",
			logging.FrameID(p.frame.ID),
			logging.URL(p.frame.URL),
			zap.Error(err),
		)
		c.fail(p.frame.ID, err.Error())
		return nil
	}
	c.obs.FrameFetched(doc.Status)
	c.record(p.frame.ID, doc)

	// redirects may change the frame's origin
	p.frame.URL = doc.URL
	p.frame.CrossOrigin = page.CrossOrigin(p.parentURL, doc.URL)

	if !page.IsHTML(doc.Body, doc.ContentType) {
		return nil
	}
	parsed, err := page.Parse(doc.Body, doc.ContentType, doc.URL, p.frame.ID)
	if err != nil {
		c.fail(p.frame.ID, err.Error())
		return nil
	}
	p.frame.Frames = parsed.Frames
	return c.children(p.frame, doc.URL, p.depth+1)
}

func (c *crawler) children(frame *frames.Element, docURL string, depth int) []pending {
	if depth > c.cfg.MaxDepth {
		return nil
	}
	out := make([]pending, 0, len(frame.Frames))
	for _, child := range frame.Frames {
		out = append(out, pending{frame: child, parentURL: docURL, depth: depth})
	}
	return out
}

func (c *crawler) reserve() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.MaxFrames > 0 && c.fetched >= c.cfg.MaxFrames {
		return false
	}
	c.fetched++
	return true
}

func (c *crawler) record(frameID string, doc *fetch.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, hc := range doc.Cookies {
		c.cookies[frameID] = cookies.Merge(c.cookies[frameID], cookies.FromHTTP(hc, doc.URL, c.topURL, frameID))
	}
}

func (c *crawler) fail(frameID, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frameErrors[frameID] = msg
}
