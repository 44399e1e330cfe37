package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/nkravets/avsig/internal/util"
)

const (
	highWaterMark = 256 * 1024 // report congestion when bufferedAmount exceeds this
	lowWaterMark  = 64 * 1024  // signal send-ready when bufferedAmount drops below this
)

// STUN servers for ICE candidate gathering. No TURN, the transport targets
// direct peer connectivity.
var stunServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

// DataChannel wraps a PeerConnection and an ordered DataChannel as a
// signaling packet channel. Congestion maps onto the DataChannel's buffered
// amount: Send reports congested once the buffer crosses the high-water mark,
// and the handler's OnSendReady fires when it drains below the low-water
// mark.
type DataChannel struct {
	pc *webrtc.PeerConnection
	dc *webrtc.DataChannel

	openSignal chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	// mu serializes handler notifications across pion's callback goroutines.
	mu      sync.Mutex
	handler Handler

	stateMu sync.RWMutex
	pcState webrtc.PeerConnectionState
}

// NewDataChannel creates a transport backed by a new PeerConnection and a
// pre-negotiated, ordered DataChannel. The caller performs signaling via the
// exposed methods (CreateOffer / CreateAnswer / ...), then attaches a handler
// and sends packets once Ready is closed.
func NewDataChannel(ctx context.Context) (*DataChannel, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: stunServers}},
	})
	if err != nil {
		return nil, err
	}

	// negotiated mode (ID 0) lets both sides create the channel without
	// OnDataChannel; ordered delivery is required for fragment reassembly
	ordered := true
	negotiated := true
	id := uint16(0)
	dc, err := pc.CreateDataChannel("signaling", &webrtc.DataChannelInit{
		Ordered:    &ordered,
		Negotiated: &negotiated,
		ID:         &id,
	})
	if err != nil {
		pc.Close()
		return nil, err
	}

	tCtx, tCancel := context.WithCancel(ctx)
	t := &DataChannel{
		pc:         pc,
		dc:         dc,
		openSignal: make(chan struct{}),
		ctx:        tCtx,
		cancel:     tCancel,
		pcState:    webrtc.PeerConnectionStateNew,
	}

	var openOnce sync.Once
	dc.OnOpen(func() {
		openOnce.Do(func() { close(t.openSignal) })
	})
	dc.OnClose(func() {
		util.LogInfo("DataChannel closed")
		tCancel()
	})

	dc.SetBufferedAmountLowThreshold(uint64(lowWaterMark))
	dc.OnBufferedAmountLow(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.handler != nil {
			t.handler.OnSendReady()
		}
	})

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		util.Stats.AddRecv(len(msg.Data))
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.handler != nil {
			t.handler.OnPacket(msg.Data)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		util.LogDebug("PeerConnection state: %s", state.String())
		t.stateMu.Lock()
		t.pcState = state
		t.stateMu.Unlock()
	})

	return t, nil
}

// SetHandler attaches the handler inbound packets and send-ready
// notifications are delivered to.
func (t *DataChannel) SetHandler(h Handler) {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
}

// Send writes one packet to the DataChannel.
func (t *DataChannel) Send(pkt []byte) bool {
	if err := t.dc.Send(pkt); err != nil {
		util.LogError("failed to send packet (%d bytes): %v", len(pkt), err)
		return true
	}
	util.Stats.AddSent(len(pkt))
	return t.dc.BufferedAmount() > uint64(highWaterMark)
}

// Ready returns a channel closed when the DataChannel is open.
func (t *DataChannel) Ready() <-chan struct{} {
	return t.openSignal
}

// Done returns a channel closed when the transport is shut down.
func (t *DataChannel) Done() <-chan struct{} {
	return t.ctx.Done()
}

// Close shuts down the DataChannel and PeerConnection.
func (t *DataChannel) Close() error {
	t.cancel()
	return errors.Join(t.dc.Close(), t.pc.Close())
}

// ConnectionState returns the last observed PeerConnection state.
func (t *DataChannel) ConnectionState() webrtc.PeerConnectionState {
	t.stateMu.RLock()
	defer t.stateMu.RUnlock()
	return t.pcState
}

// ---------------------------------------------------------------------------
// Signaling
// ---------------------------------------------------------------------------

// CreateOffer generates an SDP offer.
func (t *DataChannel) CreateOffer() (webrtc.SessionDescription, error) {
	return t.pc.CreateOffer(nil)
}

// CreateAnswer generates an SDP answer.
func (t *DataChannel) CreateAnswer() (webrtc.SessionDescription, error) {
	return t.pc.CreateAnswer(nil)
}

// SetLocalDescription applies the local SDP.
func (t *DataChannel) SetLocalDescription(sdp webrtc.SessionDescription) error {
	return t.pc.SetLocalDescription(sdp)
}

// SetRemoteDescription applies the remote SDP.
func (t *DataChannel) SetRemoteDescription(sdp webrtc.SessionDescription) error {
	return t.pc.SetRemoteDescription(sdp)
}

// OnICECandidate registers a callback invoked for each gathered local ICE
// candidate. A nil candidate signals the end of gathering.
func (t *DataChannel) OnICECandidate(fn func(*webrtc.ICECandidate)) {
	t.pc.OnICECandidate(fn)
}

// AddICECandidate adds a remote ICE candidate received through signaling.
func (t *DataChannel) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return t.pc.AddICECandidate(candidate)
}
