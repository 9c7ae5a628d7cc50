// internal/websocket/types.go
package websocket

// Kinds for WSMessage.Kind.
const (
	KindRPCRequest  = "rpc_request"
	KindRPCResponse = "rpc_response"
	KindEvent       = "event"
)

// WSMessage is the envelope for everything on the wire. Exactly one of the
// optional fields is set, selected by Kind.
type WSMessage struct {
	Kind string `json:"kind"`

	Request  *RPCRequest  `json:"request,omitempty"`
	Response *RPCResponse `json:"response,omitempty"`
	Event    *WSEvent     `json:"event,omitempty"`
}

// RPCRequest is a method call from a UI surface. Method names the exported
// App method ("SetSelectedCurves"); Params are positional.
type RPCRequest struct {
	ID     string        `json:"id"`
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

// RPCResponse answers one RPCRequest, echoing its ID.
type RPCResponse struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// WSEvent is a store notification pushed to every connected surface. Type
// is the event channel name ("curves:changed"); Payload the event struct.
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
