/*
Package server implements msgpack IPC for prefix completion.

The server reads a stream of msgpack maps from stdin and writes one msgpack
map per request to stdout. Logs go to stderr so stdout only ever carries
protocol frames.

# IPC

Every request carries an ID and an action. An empty action means
"complete".

	{"id": "req_001", "action": "complete", "p": "app", "l": 24}

The server responds with matches ordered by descending weight, the number
returned, the total number of matches and the time taken in microseconds:

	{"id": "req_001", "s": [{"w": "apply", "f": 20, "r": 1}, {"w": "app", "f": 10, "r": 2}], "c": 2, "n": 3, "t": 41}

Counting skips collecting the matches:

	{"id": "req_002", "action": "count", "p": "app"}
	{"id": "req_002", "n": 3, "t": 3}

Index management:

	{"id": "req_003", "action": "stats"}
	{"id": "req_004", "action": "reload"}

Failed requests get a CompletionError with code 400 for bad input and 500
for server side failures.
*/
package server

// Request is an incoming IPC message.
type Request struct {
	ID     string  `msgpack:"id"`
	Action string  `msgpack:"action,omitempty"` // "complete", "count", "stats", "reload"
	Prefix *string `msgpack:"p,omitempty"`
	Limit  int     `msgpack:"l,omitempty"`
}

// CompletionSuggestion is a single match
type CompletionSuggestion struct {
	Text   string `msgpack:"w"`
	Weight int64  `msgpack:"f"`
	Rank   uint16 `msgpack:"r"`
}

// CompletionResponse answers a complete request
type CompletionResponse struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"s"`
	Count       int                    `msgpack:"c"`
	Total       int                    `msgpack:"n"`
	TimeTaken   int64                  `msgpack:"t"`
}

// CountResponse answers a count request
type CountResponse struct {
	ID        string `msgpack:"id"`
	Total     int    `msgpack:"n"`
	TimeTaken int64  `msgpack:"t"`
}

// StatusResponse answers stats and reload requests and announces readiness
type StatusResponse struct {
	ID     string         `msgpack:"id,omitempty"`
	Status string         `msgpack:"status"`
	Source string         `msgpack:"source,omitempty"`
	Stats  map[string]int `msgpack:"stats,omitempty"`
}

// CompletionError holds basic error information for failed requests
type CompletionError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
