package ws

import (
	"errors"
	"strings"
	"time"

	"github.com/GriffinCanCode/FrameLens/backend/internal/frames"
	"github.com/GriffinCanCode/FrameLens/backend/internal/inspection"
)

var errMissingFrame = errors.New("frame_id is required")

// Composer produces tooltip payloads. *inspection.Service satisfies it.
type Composer interface {
	Tooltip(id, frameID, nested string) (frames.Info, error)
	MarkNested(id, frameID, src string) error
	ComposeSnapshot(snap inspection.Snapshot) frames.Info
}

type attached struct {
	id           int64
	inspectionID string
	frameID      string
}

// Session is the overlay state of one connection. It is not safe for
// concurrent use; a connection handles its messages one at a time.
type Session struct {
	composer Composer
	renderer frames.Renderer
	current  *attached
	seq      int64
	now      func() time.Time
}

// NewSession creates a session rendering overlays with renderer.
func NewSession(composer Composer, renderer frames.Renderer) *Session {
	return &Session{composer: composer, renderer: renderer, now: time.Now}
}

// Handle applies one panel message and returns the replies in order.
func (s *Session) Handle(msg Inbound) []Outbound {
	switch msg.Type {
	case TypeHoverEnter:
		return s.enter(msg)
	case TypeHoverInner:
		if msg.FrameID == "" {
			return []Outbound{s.fail(errMissingFrame)}
		}
		if err := s.composer.MarkNested(msg.InspectionID, msg.FrameID, msg.Nested); err != nil {
			return []Outbound{s.fail(err)}
		}
		return nil
	case TypeHoverLeave:
		return s.detach()
	case TypeFrameRemoved:
		if msg.FrameID == "" {
			return []Outbound{s.fail(errMissingFrame)}
		}
		if s.current == nil || !s.current.within(msg.InspectionID, msg.FrameID) {
			return nil
		}
		return s.detach()
	case TypePing:
		return []Outbound{{Type: TypePong, Timestamp: s.now().Unix()}}
	default:
		return []Outbound{s.fail(errors.New("unknown message type"))}
	}
}

// Current returns the id and frame of the attached overlay.
func (s *Session) Current() (int64, string, bool) {
	if s.current == nil {
		return 0, "", false
	}
	return s.current.id, s.current.frameID, true
}

// enter replaces the attached overlay. The previous overlay is detached even
// when the new one cannot be composed.
func (s *Session) enter(msg Inbound) []Outbound {
	out := s.detach()
	var (
		info frames.Info
		err  error
	)
	switch {
	case msg.Snapshot != nil:
		snap := *msg.Snapshot
		if snap.Nested == "" {
			snap.Nested = msg.Nested
		}
		info = s.composer.ComposeSnapshot(snap)
	case msg.FrameID == "":
		err = errMissingFrame
	default:
		info, err = s.composer.Tooltip(msg.InspectionID, msg.FrameID, msg.Nested)
	}
	if err != nil {
		return append(out, s.fail(err))
	}

	overlay, err := s.renderer.Render(info)
	if err != nil {
		return append(out, s.fail(err))
	}

	s.seq++
	s.current = &attached{id: s.seq, inspectionID: msg.InspectionID, frameID: msg.FrameID}
	return append(out, Outbound{
		Type:      TypeOverlayAttach,
		OverlayID: s.seq,
		FrameID:   msg.FrameID,
		Overlay:   overlay,
		Timestamp: s.now().Unix(),
	})
}

// within reports whether the overlay belongs to frameID of inspectionID or
// to one of its descendants.
func (a *attached) within(inspectionID, frameID string) bool {
	if a.inspectionID != inspectionID {
		return false
	}
	return a.frameID == frameID || strings.HasPrefix(a.frameID, frameID+".")
}

// detach removes the attached overlay.
func (s *Session) detach() []Outbound {
	if s.current == nil {
		return nil
	}
	cur := s.current
	s.current = nil
	return []Outbound{{
		Type:      TypeOverlayDetach,
		OverlayID: cur.id,
		FrameID:   cur.frameID,
		Timestamp: s.now().Unix(),
	}}
}

func (s *Session) fail(err error) Outbound {
	return Outbound{Type: TypeError, Message: err.Error(), Timestamp: s.now().Unix()}
}
