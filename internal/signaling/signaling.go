package signaling

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/nkravets/avsig/internal/transport"
	"github.com/nkravets/avsig/internal/util"
)

// EstablishAsHost runs the full host-side bootstrap flow:
//  1. Start a WS server on addr with a generated PIN
//  2. Print the connection info
//  3. Wait for the peer to connect
//  4. Create a DataChannel transport
//  5. Perform the SDP/ICE exchange
//  6. Wait for the DataChannel to open
//  7. Close the WS server and connection
func EstablishAsHost(ctx context.Context, addr string) (*transport.DataChannel, error) {
	pin := generatePIN(4)
	srv := newWSServer(pin)
	port, err := srv.start(addr)
	if err != nil {
		return nil, err
	}
	defer srv.close()

	util.LogInfo("bootstrap server listening on port %d (pin %s)", port, pin)
	util.LogInfo("waiting for peer, URL form: ws://<host>:%d/ws?pin=%s", port, pin)

	wsConn, err := srv.waitForPeer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for peer: %w", err)
	}
	defer wsConn.Close()
	util.LogInfo("peer connected")

	return exchange(ctx, wsConn, true)
}

// EstablishAsClient runs the client-side bootstrap flow: connect to the
// host's WS server, perform the SDP/ICE exchange, and wait for the
// DataChannel to open.
func EstablishAsClient(ctx context.Context, wsURL string) (*transport.DataChannel, error) {
	wsConn, err := connect(ctx, wsURL)
	if err != nil {
		return nil, err
	}
	defer wsConn.Close()
	util.LogDebug("bootstrap connected: %s", wsURL)

	return exchange(ctx, wsConn, false)
}

// exchange wires a sender and receiver onto wsConn and blocks until the
// DataChannel opens. The host sends the offer; the client answers through the
// receiver loop.
func exchange(ctx context.Context, wsConn *websocket.Conn, offerer bool) (*transport.DataChannel, error) {
	tr, err := transport.NewDataChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	s := &sender{tr: tr, conn: wsConn}
	r := &receiver{tr: tr, conn: wsConn, sender: s}

	// trickle ICE candidates as they are gathered
	tr.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		data, _ := json.Marshal(c.ToJSON())
		// best-effort: a failed candidate send surfaces as exchange failure
		_ = s.sendCandidate(string(data))
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.watch() // exits when wsConn closes
	}()

	if offerer {
		if err := s.sendOffer(); err != nil {
			tr.Close()
			return nil, fmt.Errorf("failed to send offer: %w", err)
		}
	}

	select {
	case <-tr.Ready():
		util.LogDebug("DataChannel established, closing bootstrap connection")
		return tr, nil

	case err := <-errCh:
		// the WS may close because Ready already fired
		select {
		case <-tr.Ready():
			return tr, nil
		default:
			tr.Close()
			return nil, fmt.Errorf("bootstrap failed: %w", err)
		}

	case <-ctx.Done():
		tr.Close()
		return nil, ctx.Err()
	}
}
