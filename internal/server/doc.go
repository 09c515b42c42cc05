// Package server exposes the dashboard surface: a WebSocket hub pushing
// ordered display rows to connected clients, plus small JSON endpoints for
// symbol and spike queries and health.
//
// The hub owns the table sort state. Clients change it with set_sort
// messages; the hub advances the sort cycle and asks the coordinator for a
// repaint. Slow clients whose outbound queue fills up are dropped rather
// than allowed to stall the broadcast. With zero clients connected the
// coordinator is paused.
package server
