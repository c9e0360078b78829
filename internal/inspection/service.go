package inspection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/FrameLens/backend/internal/cookies"
	"github.com/GriffinCanCode/FrameLens/backend/internal/fetch"
	"github.com/GriffinCanCode/FrameLens/backend/internal/frames"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/FrameLens/backend/internal/shared/id"
	"go.uber.org/zap"
)

// Fetcher loads documents. *fetch.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts fetch.Options) (*fetch.Document, error)
}

// Observer receives service events, typically to record metrics.
type Observer interface {
	InspectionDone(op string, duration time.Duration, frames int, err error)
	FrameFetched(status int)
	TooltipComposed(kind frames.Classification)
	StoreSize(n int)
}

type nopObserver struct{}

func (nopObserver) InspectionDone(string, time.Duration, int, error) {}
func (nopObserver) FrameFetched(int)                                 {}
func (nopObserver) TooltipComposed(frames.Classification)            {}
func (nopObserver) StoreSize(int)                                    {}

// Config bounds a crawl and the store.
type Config struct {
	MaxDepth    int
	MaxFrames   int
	Concurrency int
	Capacity    int
	TTL         time.Duration
	// Columns overrides the cookie table layout.
	Columns []cookies.Column
}

// DefaultConfig returns the settings used by the server
func DefaultConfig() Config {
	return Config{
		MaxDepth:    3,
		MaxFrames:   50,
		Concurrency: 4,
		Capacity:    100,
		TTL:         time.Hour,
	}
}

// Service inspects pages and serves the panel state derived from them.
type Service struct {
	fetcher Fetcher
	store   *Store
	cfg     Config
	logger  *logging.Logger
	obs     Observer
	now     func() time.Time
}

// NewService creates a service. A nil observer discards events.
func NewService(fetcher Fetcher, cfg Config, logger *logging.Logger, obs Observer) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	if obs == nil {
		obs = nopObserver{}
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if len(cfg.Columns) == 0 {
		cfg.Columns = cookies.DefaultColumns
	}
	return &Service{
		fetcher: fetcher,
		store:   NewStore(cfg.Capacity, cfg.TTL),
		cfg:     cfg,
		logger:  logger.Component("inspection"),
		obs:     obs,
		now:     time.Now,
	}
}

// Columns is the cookie table layout in use.
func (s *Service) Columns() []cookies.Column {
	return s.cfg.Columns
}

// Inspect loads rawURL and its frames and stores the result.
func (s *Service) Inspect(ctx context.Context, rawURL string) (*Inspection, error) {
	start := s.now()
	res, err := s.crawl(ctx, strings.TrimSpace(rawURL), fetch.Options{})
	s.obs.InspectionDone("inspect", s.now().Sub(start), countFrames(res), err)
	if err != nil {
		return nil, err
	}

	now := s.now()
	in := &Inspection{ID: id.NewInspectionID(), createdAt: now}
	in.apply(res, now)

	for _, id := range s.store.Put(in) {
		s.logger.Debug("Inspection evicted", logging.InspectionID(id))
	}
	s.obs.StoreSize(s.store.Len())

	s.logger.Info("Inspection created",
		logging.InspectionID(in.ID),
		logging.URL(res.finalURL),
		zap.Int("frames", countFrames(res)),
	)
	return in, nil
}

// Reload inspects the page again, bypassing caches, and replaces the stored
// result under the same id.
func (s *Service) Reload(ctx context.Context, id string) (*Inspection, error) {
	in, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	start := s.now()
	res, err := s.crawl(ctx, in.URL(), fetch.Options{BypassCache: true})
	s.obs.InspectionDone("reload", s.now().Sub(start), countFrames(res), err)
	if err != nil {
		return nil, err
	}

	in.apply(res, s.now())
	in.mu.Lock()
	in.reloads++
	in.mu.Unlock()

	s.logger.Info("Inspection reloaded", logging.InspectionID(id), logging.URL(res.finalURL))
	return in, nil
}

// Get returns a stored inspection.
func (s *Service) Get(id string) (*Inspection, error) {
	in, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return in, nil
}

// List returns every live inspection, oldest first.
func (s *Service) List() []*Inspection {
	return s.store.List()
}

// Delete removes an inspection.
func (s *Service) Delete(id string) error {
	if !s.store.Delete(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.obs.StoreSize(s.store.Len())
	return nil
}

// Expire drops expired inspections and returns how many were removed.
func (s *Service) Expire() int {
	n := len(s.store.Expire())
	if n > 0 {
		s.obs.StoreSize(s.store.Len())
	}
	return n
}

// Frame returns one frame of an inspection.
func (s *Service) Frame(id, frameID string) (*Inspection, *frames.Element, error) {
	in, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	frame := in.Root().Find(frameID)
	if frame == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrFrameNotFound, frameID)
	}
	return in, frame, nil
}

// MarkNested records the src of the iframe the pointer is over inside the
// content document of a frame. The next tooltip of that frame consumes it.
func (s *Service) MarkNested(id, frameID, src string) error {
	_, frame, err := s.Frame(id, frameID)
	if err != nil {
		return err
	}
	frame.SetNestedMarker(src)
	return nil
}

// Tooltip composes the tooltip of a stored frame. nested names the hovered
// iframe inside the frame's content document; when empty the pending marker
// of the frame is used.
func (s *Service) Tooltip(id, frameID, nested string) (frames.Info, error) {
	in, frame, err := s.Frame(id, frameID)
	if err != nil {
		return frames.Info{}, err
	}

	first, third := cookies.Counts(in.Cookies(frameID))
	info := frames.Compose(frames.Request{
		Frame:  frame,
		Nested: nested,
		Payload: frames.Payload{
			SelectedFrame:     in.Origin(),
			FirstPartyCookies: &first,
			ThirdPartyCookies: &third,
		},
		Base: documentURL(in.Root(), frameID),
	})
	s.obs.TooltipComposed(info.Type)
	return info, nil
}

// Snapshot is a frame captured by a page-side collector together with the
// analytics gathered for it.
type Snapshot struct {
	Frame   *frames.Element `json:"frame"`
	Nested  string          `json:"nested,omitempty"`
	Payload frames.Payload  `json:"payload"`
	// Base is the URL of the document embedding the frame.
	Base string `json:"base,omitempty"`
}

// ComposeSnapshot composes a tooltip for a frame that is not stored.
func (s *Service) ComposeSnapshot(snap Snapshot) frames.Info {
	info := frames.Compose(frames.Request{
		Frame:   snap.Frame,
		Nested:  snap.Nested,
		Payload: snap.Payload,
		Base:    snap.Base,
	})
	s.obs.TooltipComposed(info.Type)
	return info
}

func (s *Service) crawl(ctx context.Context, rawURL string, opts fetch.Options) (*result, error) {
	c := &crawler{
		fetcher: s.fetcher,
		cfg:     s.cfg,
		logger:  s.logger,
		obs:     s.obs,
		opts:    opts,
	}
	return c.crawl(ctx, rawURL)
}

// documentURL returns the address of the nearest real document embedding
// the frame with id.
func documentURL(root *frames.Element, id string) string {
	for parent := parentOf(root, id); parent != nil; parent = parentOf(root, parent.ID) {
		if !strings.HasPrefix(parent.URL, "about:") {
			return parent.URL
		}
	}
	return ""
}

func countFrames(res *result) int {
	if res == nil {
		return 0
	}
	n := 0
	res.root.Walk(func(*frames.Element) bool {
		n++
		return true
	})
	return n
}
