package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"infond.dev/internal/protocol"
)

func main() {
	var (
		addr  = flag.String("addr", "127.0.0.1:1234", "game server tcp address")
		url   = flag.String("ws", "", "spectator ws url, e.g. ws://127.0.0.1:8080/v1/observe (overrides -addr)")
		name  = flag.String("name", "watch", "spectator name (ws only)")
		every = flag.Duration("every", time.Second, "print interval")
		quiet = flag.Bool("quiet", false, "print traffic only, no map")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lmicroseconds)

	var next func() (protocol.Message, int, error)
	if *url != "" {
		conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
		if err != nil {
			logger.Fatalf("dial: %v", err)
		}
		defer conn.Close()
		sub := protocol.SubscribeMsg{Type: protocol.TypeSubscribe, ProtocolVersion: protocol.Version, Name: *name}
		if err := conn.WriteJSON(sub); err != nil {
			logger.Fatalf("send SUBSCRIBE: %v", err)
		}
		next = func() (protocol.Message, int, error) {
			for {
				_, b, err := conn.ReadMessage()
				if err != nil {
					return nil, 0, err
				}
				m, err := protocol.DecodeJSON(b)
				if errors.Is(err, protocol.ErrUnknownType) {
					continue
				}
				return m, len(b), err
			}
		}
	} else {
		conn, err := net.Dial("tcp", *addr)
		if err != nil {
			logger.Fatalf("dial: %v", err)
		}
		defer conn.Close()
		dec := protocol.NewDecoder(conn)
		next = func() (protocol.Message, int, error) {
			before := dec.BytesRead()
			m, err := dec.Next()
			return m, int(dec.BytesRead() - before), err
		}
	}

	type frame struct {
		m protocol.Message
		n int
	}
	frames := make(chan frame, 1024)
	go func() {
		defer close(frames)
		for {
			m, n, err := next()
			if err != nil {
				if err != io.EOF {
					logger.Printf("read: %v", err)
				}
				return
			}
			frames <- frame{m: m, n: n}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	ticker := time.NewTicker(*every)
	defer ticker.Stop()

	var mirror Mirror
	bytes, count := 0, 0
	for {
		select {
		case <-stop:
			return
		case f, ok := <-frames:
			if !ok {
				logger.Printf("server closed the connection")
				return
			}
			bytes += f.n
			count++
			if err := mirror.Apply(f.m); err != nil {
				logger.Printf("%v", err)
			}
		case <-ticker.C:
			secs := every.Seconds()
			fmt.Printf("traffic: %.1f msg/s %.1f B/s walkable=%d food_tiles=%d\n",
				float64(count)/secs, float64(bytes)/secs, mirror.Walkable(), mirror.FoodTiles())
			if !*quiet {
				fmt.Print(mirror.Render())
			}
			bytes, count = 0, 0
		}
	}
}
