// Package websocket implements the real-time message channel.
//
// Every message in either direction is an Envelope {"event", "data"}. The hub
// decodes inbound envelopes and hands them to a Handler (the game service),
// and implements service.Notifier for the way back: direct messages to one
// client and broadcasts to the game rooms clients were joined to.
//
// All hub state lives on the Run goroutine. Room joins and outbound messages
// share one queue so a client added to a room always sees the broadcasts that
// follow. A closed connection leaves every room and is reported to the
// handler's Disconnect.
package websocket
