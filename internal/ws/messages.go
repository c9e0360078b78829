package ws

import (
	"github.com/GriffinCanCode/FrameLens/backend/internal/frames"
	"github.com/GriffinCanCode/FrameLens/backend/internal/inspection"
)

// Client message types
const (
	TypeHoverEnter   = "hover_enter"
	TypeHoverInner   = "hover_inner"
	TypeHoverLeave   = "hover_leave"
	TypeFrameRemoved = "frame_removed"
	TypePing         = "ping"
)

// Server message types
const (
	TypeSystem        = "system"
	TypeOverlayAttach = "overlay_attach"
	TypeOverlayDetach = "overlay_detach"
	TypePong          = "pong"
	TypeError         = "error"
)

// Inbound is a message from the panel.
type Inbound struct {
	Type         string `json:"type"`
	InspectionID string `json:"inspection_id,omitempty"`
	FrameID      string `json:"frame_id,omitempty"`
	// Nested is the src of the hovered iframe inside the frame.
	Nested string `json:"nested,omitempty"`
	// Snapshot composes from collected frame data instead of a stored
	// inspection.
	Snapshot *inspection.Snapshot `json:"snapshot,omitempty"`
}

// Outbound is a message to the panel.
type Outbound struct {
	Type      string          `json:"type"`
	OverlayID int64           `json:"overlay_id,omitempty"`
	FrameID   string          `json:"frame_id,omitempty"`
	Overlay   *frames.Overlay `json:"overlay,omitempty"`
	Message   string          `json:"message,omitempty"`
	Timestamp int64           `json:"timestamp"`
}
