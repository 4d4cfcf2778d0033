// Package sse defines the notification stream wire format.
//
// Every unit on the wire is a server-sent event whose name is one of
// "notification", "heartbeat" or "connected" and whose data line is JSON:
//
//	event: notification
//	data: {"action":"created","notification":{...}}
//
//	event: heartbeat
//	data: {"timestamp":1735732800000}
//
// Frame is encoded once and written to many connections. Reader parses the
// same format on the client side.
package sse
