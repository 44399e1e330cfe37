package signaling

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsServer accepts the single bootstrap connection on the host side.
type wsServer struct {
	pin      string
	listener net.Listener
	connCh   chan *websocket.Conn
}

func newWSServer(pin string) *wsServer {
	return &wsServer{
		pin:    pin,
		connCh: make(chan *websocket.Conn, 1),
	}
}

// start begins listening on addr (":0" picks a random port) and returns the
// bound port number.
func (s *wsServer) start(addr string) (int, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("failed to start bootstrap server: %w", err)
	}
	s.listener = listener
	port := listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	go func() {
		_ = http.Serve(listener, mux)
	}()

	return port, nil
}

func (s *wsServer) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("pin") != s.pin {
		http.Error(w, "Invalid PIN", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	// only the first peer is accepted
	select {
	case s.connCh <- conn:
	default:
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "already connected"))
		conn.Close()
	}
}

// waitForPeer blocks until a peer connects or ctx is cancelled.
func (s *wsServer) waitForPeer(ctx context.Context) (*websocket.Conn, error) {
	select {
	case conn := <-s.connCh:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *wsServer) close() {
	if s.listener != nil {
		s.listener.Close()
	}
}

// connect dials the peer's bootstrap URL.
func connect(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bootstrap server: %w", err)
	}
	return conn, nil
}

// generatePIN returns a random numeric PIN of the given length.
func generatePIN(length int) string {
	digits := make([]byte, length)
	for i := range digits {
		n, _ := rand.Int(rand.Reader, big.NewInt(10))
		digits[i] = byte('0') + byte(n.Int64())
	}
	return string(digits)
}
