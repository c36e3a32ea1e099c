// Package protocol defines the JSON wire format shared with the server.
//
// Every frame is an envelope:
//
//	{"channel": "<name>", "type": "<event type>", "data": {...}}
//
// The "global" channel is reserved for connection lifecycle and error
// signaling; application payloads travel on session, shell, and workflow
// channels and decode into per-family tagged unions.
package protocol
