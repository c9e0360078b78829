// Package ws streams hover overlays to the devtools panel over WebSocket.
//
// The panel reports pointer movement over the inspected page and receives
// the overlay to show. A connection shows at most one overlay: composing a
// new one detaches the previous one first, and messages are handled in the
// order they arrive, so the most recent hover always wins.
//
// Message Types (Client → Server):
//   - hover_enter: pointer entered a frame; composes and attaches its overlay
//   - hover_inner: pointer is over a nested iframe inside a frame
//   - hover_leave: pointer left the frame; detaches its overlay
//   - frame_removed: the frame left the page; detaches its overlay
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: connection established
//   - overlay_attach: show an overlay
//   - overlay_detach: remove an overlay
//   - pong: reply to ping
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(service, metrics, logger, origins)
//	router.GET("/stream", handler.HandleConnection)
package ws
