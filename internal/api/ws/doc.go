// Package ws streams desktop state to browser clients over WebSocket.
//
// Each connected client is a view of the same desktop. The handler is the
// location service's Navigator: every derived location is broadcast to all
// clients, which replace their address bar with it. Lifecycle events and bus
// messages are forwarded as they happen.
//
// Message types (client to server):
//   - navigate: an address bar change (back/forward, a pasted link)
//   - ping: keep-alive
//   - close_reply: {id, allow} answering a confirm_close
//
// Message types (server to client):
//   - location: the current derived location, also sent on connect
//   - navigated: how a client navigation was reconciled
//   - lifecycle: a mount, unmount, focus, blur, activate or deactivate event
//   - bus: a side-channel message such as project.selected
//   - confirm_close: {id, window_id} asks whether a window may close
//   - pong, error
//
// With WithCloseGate set, every mounted window gets ConfirmClose as its close
// confirmation. The first close_reply wins; no reply within the confirm
// timeout denies the close. With no client connected closes are allowed.
//
// Example usage:
//
//	handler := ws.NewHandler(origins, logger).WithLocator(service)
//	router.GET("/ws", handler.HandleConnection)
package ws
