package signaling

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/nkravets/avsig/internal/transport"
)

// receiver drains inbound bootstrap messages and applies them to the
// transport, answering an offer when one arrives.
type receiver struct {
	tr     *transport.DataChannel
	conn   *websocket.Conn
	sender *sender
}

// watch reads bootstrap messages until the WebSocket closes or a message
// cannot be applied.
func (r *receiver) watch() error {
	for {
		var msg message
		if err := r.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("failed to read bootstrap message: %w", err)
		}

		switch msg.Type {
		case msgTypeOffer:
			if err := r.tr.SetRemoteDescription(webrtc.SessionDescription{
				Type: webrtc.SDPTypeOffer, SDP: msg.SDP,
			}); err != nil {
				return err
			}
			if err := r.sender.sendAnswer(); err != nil {
				return err
			}

		case msgTypeAnswer:
			if err := r.tr.SetRemoteDescription(webrtc.SessionDescription{
				Type: webrtc.SDPTypeAnswer, SDP: msg.SDP,
			}); err != nil {
				return err
			}

		case msgTypeCandidate:
			var init webrtc.ICECandidateInit
			if err := json.Unmarshal([]byte(msg.Candidate), &init); err != nil {
				return fmt.Errorf("failed to parse ICE candidate: %w", err)
			}
			if err := r.tr.AddICECandidate(init); err != nil {
				return err
			}
		}
	}
}
