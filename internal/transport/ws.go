package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/nkravets/avsig/internal/util"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WS carries signaling packets as binary WebSocket messages. Writes block
// until handed to the kernel, so the channel never reports congestion.
type WS struct {
	conn *websocket.Conn

	writeMu sync.Mutex // websocket allows one concurrent writer

	mu      sync.Mutex // serializes handler notifications
	handler Handler

	closeOnce sync.Once
	done      chan struct{}
}

// DialWS connects to a WebSocket endpoint and starts the read loop.
func DialWS(ctx context.Context, url string) (*WS, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return newWS(conn), nil
}

// UpgradeWS upgrades an inbound HTTP request and starts the read loop.
func UpgradeWS(w http.ResponseWriter, r *http.Request) (*WS, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return newWS(conn), nil
}

func newWS(conn *websocket.Conn) *WS {
	t := &WS{
		conn: conn,
		done: make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// SetHandler attaches the handler inbound packets are delivered to.
func (t *WS) SetHandler(h Handler) {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
}

// Send writes one packet as a binary message.
func (t *WS) Send(pkt []byte) bool {
	t.writeMu.Lock()
	err := t.conn.WriteMessage(websocket.BinaryMessage, pkt)
	t.writeMu.Unlock()
	if err != nil {
		util.LogError("websocket write failed: %v", err)
		t.Close()
		return true
	}
	util.Stats.AddSent(len(pkt))
	return false
}

func (t *WS) readLoop() {
	defer t.Close()
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				util.LogWarning("websocket read failed: %v", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		util.Stats.AddRecv(len(data))
		t.mu.Lock()
		if t.handler != nil {
			t.handler.OnPacket(data)
		}
		t.mu.Unlock()
	}
}

// Done returns a channel closed when the connection is torn down.
func (t *WS) Done() <-chan struct{} {
	return t.done
}

// Close tears the connection down. Safe to call more than once.
func (t *WS) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.conn.Close()
	})
	return err
}
