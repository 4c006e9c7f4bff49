package tcp

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"infond.dev/internal/protocol"
	"infond.dev/internal/sim/world"
	"infond.dev/internal/transport/outbox"
)

const writeTimeout = 5 * time.Second

// World is the part of the world service a transport talks to.
type World interface {
	Join() chan<- world.JoinRequest
	Leave() chan<- string
}

type Options struct {
	OutboxBytes int

	// Per remote IP. Zero AcceptRatePerSec disables limiting.
	AcceptRatePerSec float64
	AcceptBurst      int
}

// Server accepts game clients and streams binary world frames to them.
// Anything a client sends is read and discarded.
type Server struct {
	world World
	log   *log.Logger
	opts  Options

	ipLock     sync.Mutex
	ipLimiters map[string]*rate.Limiter

	wg sync.WaitGroup
}

func NewServer(w World, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.AcceptBurst <= 0 {
		opts.AcceptBurst = 1
	}
	return &Server{
		world:      w,
		log:        logger,
		opts:       opts,
		ipLimiters: map[string]*rate.Limiter{},
	}
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is done, then closes ln and waits for all
// connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Printf("tcp listening on %s", ln.Addr())
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	defer s.wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return err
		}
		if !s.allow(conn.RemoteAddr()) {
			s.log.Printf("tcp %s: %s", PeerAddr(conn.RemoteAddr()), protocol.ErrRateLimit)
			_ = conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) allow(addr net.Addr) bool {
	if s.opts.AcceptRatePerSec <= 0 {
		return true
	}
	ip := addr.String()
	if h, _, err := net.SplitHostPort(ip); err == nil {
		ip = h
	}
	s.ipLock.Lock()
	defer s.ipLock.Unlock()
	limiter, ok := s.ipLimiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(s.opts.AcceptRatePerSec), s.opts.AcceptBurst)
		s.ipLimiters[ip] = limiter
	}
	return limiter.Allow()
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
		// Drop unsent data on close instead of lingering.
		_ = tc.SetLinger(0)
	}

	box := outbox.New(s.opts.OutboxBytes)
	client := outbox.NewClient(uuid.NewString(), PeerAddr(conn.RemoteAddr()), box, protocol.EncodePacket)
	defer box.Close()

	resp := make(chan error, 1)
	select {
	case s.world.Join() <- world.JoinRequest{Client: client, Resp: resp}:
	case <-ctx.Done():
		return
	default:
		s.log.Printf("tcp %s: %s", client.Addr(), protocol.ErrWorldBusy)
		return
	}
	select {
	case err := <-resp:
		if err != nil {
			s.log.Printf("tcp %s: join: %v", client.Addr(), err)
			return
		}
	case <-ctx.Done():
		return
	}
	defer func() {
		select {
		case s.world.Leave() <- client.ID():
		default:
			// World loop is stopping; nothing else to do.
		}
	}()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Reader: discard input, notice when the peer goes away.
	go func() {
		_, _ = io.Copy(io.Discard, conn)
		cancel()
	}()

	var frames [][]byte
	for {
		select {
		case <-connCtx.Done():
			return
		case <-box.Done():
			if box.Overflowed() {
				s.log.Printf("tcp %s: %s, closing", client.Addr(), protocol.ErrClientLagging)
			}
			return
		case <-box.Wake():
			frames = box.Take(frames)
			if len(frames) == 0 {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			bufs := net.Buffers(frames)
			if _, err := bufs.WriteTo(conn); err != nil {
				return
			}
		}
	}
}

// PeerAddr formats a remote address as ip:<host>:<port>.
func PeerAddr(a net.Addr) string {
	if a == nil {
		return "ip:unknown"
	}
	host, port, err := net.SplitHostPort(a.String())
	if err != nil {
		return "ip:" + a.String()
	}
	return "ip:" + host + ":" + port
}
