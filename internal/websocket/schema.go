package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave  Action = "autosave"
	ActionTabSwitch Action = "tab_switch"
	ActionPing      Action = "ping"
)

// RequestPayload is the single client message shape. Autosave fills
// Field and Value; tab_switch and ping carry the action alone.
type RequestPayload struct {
	Action Action `json:"action"`
	Field  string `json:"field,omitempty"`
	Value  string `json:"value,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventSaved   Event = "saved"
	EventCounted Event = "counted"
	EventPong    Event = "pong"
)

type SavedResponse struct {
	Event Event  `json:"event"`
	Field string `json:"field"`
}

type CountedResponse struct {
	Event       Event `json:"event"`
	TabSwitches int   `json:"tab_switches"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
