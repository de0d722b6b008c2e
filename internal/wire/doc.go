// Package wire carries replicated tables over WebSocket.
//
// Frames are JSON text messages with a "type" discriminator:
//
//	client -> server  {"type":"subscribe","table":"static"}
//	                  {"type":"reload"}
//	server -> client  {"type":"hello","session":"0190..."}
//	                  {"type":"snapshot","table":"static","entries":{"combos":{...}}}
//	                  {"type":"change","table":"static","key":"combos","value":{...},"seq":7}
//
// A change whose value is null deletes the key. Values are canonical JSON and
// may only contain integers, never floats.
//
// Client implements mirror.Host on top of a local replica. Server publishes
// the tables held in a store.Store.
package wire
