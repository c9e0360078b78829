package inspection

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/FrameLens/backend/internal/cookies"
	"github.com/GriffinCanCode/FrameLens/backend/internal/frames"
)

var (
	ErrNotFound       = errors.New("inspection not found")
	ErrFrameNotFound  = errors.New("frame not found")
	ErrCookieNotFound = errors.New("cookie not found")
	ErrNotHTML        = errors.New("document is not html")
)

// Selection is what the panel currently has selected.
type Selection struct {
	Frame string `json:"frame,omitempty"`
	// Cookies maps a frame id to the key of the selected cookie in it.
	Cookies map[string]string `json:"cookies,omitempty"`
}

// Inspection is one inspected page, kept until it expires or is deleted.
type Inspection struct {
	ID string

	mu          sync.RWMutex
	url         string
	finalURL    string
	origin      string
	title       string
	status      int
	root        *frames.Element
	cookies     map[string][]cookies.Cookie
	frameErrors map[string]string
	createdAt   time.Time
	updatedAt   time.Time
	reloads     int
	prefs       cookies.Preferences
	selection   Selection
}

// result is the outcome of crawling a page, swapped into an Inspection on
// create and reload.
type result struct {
	url         string
	finalURL    string
	origin      string
	title       string
	status      int
	root        *frames.Element
	cookies     map[string][]cookies.Cookie
	frameErrors map[string]string
}

func (i *Inspection) apply(r *result, now time.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.url = r.url
	i.finalURL = r.finalURL
	i.origin = r.origin
	i.title = r.title
	i.status = r.status
	i.root = r.root
	i.cookies = r.cookies
	i.frameErrors = r.frameErrors
	i.updatedAt = now
	i.pruneSelectionLocked()
}

// pruneSelectionLocked drops selections that point at frames or cookies
// that no longer exist.
func (i *Inspection) pruneSelectionLocked() {
	if i.selection.Frame != "" && i.root.Find(i.selection.Frame) == nil {
		i.selection.Frame = ""
	}
	for frameID, key := range i.selection.Cookies {
		if !hasCookie(i.cookies[frameID], key) {
			delete(i.selection.Cookies, frameID)
		}
	}
}

func hasCookie(list []cookies.Cookie, key string) bool {
	for _, c := range list {
		if c.Key() == key {
			return true
		}
	}
	return false
}

// Root returns the frame tree of the page.
func (i *Inspection) Root() *frames.Element {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.root
}

// Origin is the origin of the top-level frame after redirects.
func (i *Inspection) Origin() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.origin
}

// URL is the address the inspection was created for.
func (i *Inspection) URL() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.url
}

// Cookies returns the cookies of one frame, or of every frame when frameID
// is empty.
func (i *Inspection) Cookies(frameID string) []cookies.Cookie {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if frameID != "" {
		return append([]cookies.Cookie(nil), i.cookies[frameID]...)
	}

	ids := make([]string, 0, len(i.cookies))
	for id := range i.cookies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var all []cookies.Cookie
	for _, id := range ids {
		all = append(all, i.cookies[id]...)
	}
	return all
}

// Preferences returns the cookie table settings.
func (i *Inspection) Preferences() cookies.Preferences {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.prefs
}

// Selection returns a copy of the panel selection.
func (i *Inspection) Selection() Selection {
	i.mu.RLock()
	defer i.mu.RUnlock()

	s := Selection{Frame: i.selection.Frame}
	if len(i.selection.Cookies) > 0 {
		s.Cookies = make(map[string]string, len(i.selection.Cookies))
		for k, v := range i.selection.Cookies {
			s.Cookies[k] = v
		}
	}
	return s
}

// FrameSummary is a flat listing entry of a frame.
type FrameSummary struct {
	ID                string                `json:"id"`
	Tag               string                `json:"tag"`
	URL               string                `json:"url,omitempty"`
	Type              frames.Classification `json:"type"`
	CrossOrigin       bool                  `json:"crossOrigin"`
	Rect              *frames.Rect          `json:"rect,omitempty"`
	FirstPartyCookies int                   `json:"firstPartyCookies"`
	ThirdPartyCookies int                   `json:"thirdPartyCookies"`
	Error             string                `json:"error,omitempty"`
}

// View is the serializable state of an inspection.
type View struct {
	ID          string           `json:"id"`
	URL         string           `json:"url"`
	FinalURL    string           `json:"finalUrl"`
	Origin      string           `json:"origin"`
	Title       string           `json:"title,omitempty"`
	Status      int              `json:"status"`
	Frames      []FrameSummary   `json:"frames"`
	Tree        *frames.Element  `json:"tree,omitempty"`
	Cookies     []cookies.Cookie `json:"cookies"`
	Selection   Selection        `json:"selection"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Reloads     int              `json:"reloads"`
}

// Frames lists every frame of the page in tree order. Frames are
// classified without a nesting marker.
func (i *Inspection) Frames() []FrameSummary {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.framesLocked()
}

func (i *Inspection) framesLocked() []FrameSummary {
	var out []FrameSummary
	i.root.Walk(func(el *frames.Element) bool {
		first, third := cookies.Counts(i.cookies[el.ID])
		out = append(out, FrameSummary{
			ID:                el.ID,
			Tag:               el.Tag,
			URL:               el.URL,
			Type:              frames.Classify(el, el.Rect, nil),
			CrossOrigin:       el.CrossOrigin,
			Rect:              el.Rect,
			FirstPartyCookies: first,
			ThirdPartyCookies: third,
			Error:             i.frameErrors[el.ID],
		})
		return true
	})
	return out
}

// View snapshots the inspection. The frame tree is included when tree is
// set.
func (i *Inspection) View(tree bool) View {
	sel := i.Selection()
	all := i.Cookies("")

	i.mu.RLock()
	defer i.mu.RUnlock()

	v := View{
		ID:        i.ID,
		URL:       i.url,
		FinalURL:  i.finalURL,
		Origin:    i.origin,
		Title:     i.title,
		Status:    i.status,
		Frames:    i.framesLocked(),
		Cookies:   all,
		Selection: sel,
		CreatedAt: i.createdAt,
		UpdatedAt: i.updatedAt,
		Reloads:   i.reloads,
	}
	if tree {
		v.Tree = i.root
	}
	return v
}

// parentOf returns the frame whose document embeds the frame with id.
func parentOf(root *frames.Element, id string) *frames.Element {
	var parent *frames.Element
	root.Walk(func(el *frames.Element) bool {
		if parent != nil {
			return false
		}
		for _, child := range el.Frames {
			if child.ID == id {
				parent = el
				return false
			}
		}
		return true
	})
	return parent
}
