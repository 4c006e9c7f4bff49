package observer

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"infond.dev/internal/protocol"
	"infond.dev/internal/sim/world"
	"infond.dev/internal/transport/outbox"
)

// World is the part of the world service spectators need.
type World interface {
	Join() chan<- world.JoinRequest
	Leave() chan<- string
	Metrics() world.WorldMetrics
}

// joinTimeout bounds the wait for the world loop to accept a spectator.
var joinTimeout = 5 * time.Second

// maxFrameBytes bounds one JSON WORLD_INFO or WORLD_UPDATE frame.
const maxFrameBytes = 64

// outboxBudget returns an outbox size that holds a full snapshot of a
// width x height grid on top of the configured live-update headroom.
func outboxBudget(configured, width, height int) int {
	if configured <= 0 {
		configured = outbox.DefaultMaxBytes
	}
	return configured + (1+width*height)*maxFrameBytes
}

type Options struct {
	OutboxBytes int
	// AllowRemote accepts spectators from non-loopback addresses.
	AllowRemote bool
}

// Server streams the world to spectators over WebSocket as JSON frames:
// the same WORLD_INFO / WORLD_UPDATE sequence game clients get.
type Server struct {
	world World
	log   *log.Logger
	opts  Options

	upgrader websocket.Upgrader
}

func NewServer(w World, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		world: w,
		log:   logger,
		opts:  opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.opts.AllowRemote && !IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, protocol.ErrForbidden, http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub protocol.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil || sub.Type != protocol.TypeSubscribe {
			closeWith(conn, websocket.ClosePolicyViolation, protocol.ErrProtoBadRequest)
			return
		}
		if sub.ProtocolVersion != protocol.Version {
			closeWith(conn, websocket.ClosePolicyViolation, protocol.ErrProtoVersion)
			return
		}

		m := s.world.Metrics()
		box := outbox.New(outboxBudget(s.opts.OutboxBytes, m.Width, m.Height))
		defer box.Close()
		addr := "ws:" + r.RemoteAddr
		if sub.Name != "" {
			addr += "/" + sub.Name
		}
		client := outbox.NewClient(uuid.NewString(), addr, box, protocol.EncodeJSON)

		resp := make(chan error, 1)
		select {
		case s.world.Join() <- world.JoinRequest{Client: client, Resp: resp}:
		default:
			closeWith(conn, websocket.CloseTryAgainLater, protocol.ErrWorldBusy)
			return
		}
		select {
		case err := <-resp:
			if err != nil {
				s.log.Printf("observer %s: join: %v", addr, err)
				closeWith(conn, websocket.CloseTryAgainLater, protocol.ErrWorldNotReady)
				return
			}
		case <-r.Context().Done():
			return
		case <-time.After(joinTimeout):
			// The world loop is gone or stalled.
			closeWith(conn, websocket.CloseTryAgainLater, protocol.ErrWorldBusy)
			return
		}
		defer func() {
			select {
			case s.world.Leave() <- client.ID():
			default:
				// World loop is stopping; nothing else to do.
			}
		}()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			var frames [][]byte
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case <-box.Done():
					if box.Overflowed() {
						s.log.Printf("observer %s: %s, closing", addr, protocol.ErrClientLagging)
						closeWith(conn, websocket.CloseTryAgainLater, protocol.ErrClientLagging)
					}
					_ = conn.Close()
					writeErr <- nil
					return
				case <-box.Wake():
					frames = box.Take(frames)
					for _, b := range frames {
						_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
						if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
							_ = conn.Close()
							writeErr <- err
							return
						}
					}
				}
			}
		}()

		// Reader loop: spectators have nothing to say; keep reading for
		// control frames and to notice the close.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		closeWith(conn, websocket.CloseNormalClosure, "bye")

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}

func IsLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
