// Package ws streams kernel state to the UI shell over WebSocket.
//
// On connect the server sends a system frame carrying the connection id,
// then a status frame, then a status frame every stream interval. Kernel
// events published through an events.Hub are forwarded as event frames.
//
// Message Types (Client → Server):
//   - ping: keep-alive, answered with pong
//   - status: request an immediate status frame
//
// Message Types (Server → Client):
//   - system, pong
//   - status: {"type":"status","initialized":false,"code":-2} before init
//   - event: a kernel event
//   - error: the client sent something unparseable or unknown
//
// Example Usage:
//
//	handler := ws.NewHandler(manager, hub, metrics, logger, time.Second)
//	router.GET("/stream", handler.HandleConnection)
package ws
