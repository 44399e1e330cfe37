// Package signaling bootstraps the peer connection: it runs the WebSocket
// SDP/ICE exchange and hands back a ready DataChannel transport for the
// signaling session to run over.
package signaling

// msgType identifies the kind of bootstrap message.
type msgType string

const (
	msgTypeOffer     msgType = "offer"
	msgTypeAnswer    msgType = "answer"
	msgTypeCandidate msgType = "candidate"
)

// message is the JSON structure exchanged over the WebSocket during the
// bootstrap phase.
type message struct {
	Type      msgType `json:"type"`
	SDP       string  `json:"sdp,omitempty"`
	Candidate string  `json:"candidate,omitempty"` // JSON-encoded ICECandidateInit
}
