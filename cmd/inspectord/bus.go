package main

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lait-kelomins/laits-entity-inspector/internal/inspector"
	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
	"github.com/lait-kelomins/laits-entity-inspector/internal/telemetry"
	"github.com/lait-kelomins/laits-entity-inspector/internal/transport"
)

// messageBus is a bare TCP, newline-delimited-JSON stand-in for the
// WebSocket framing a real host binds transport.Conn to (§1 out of scope).
// It exists only so cmd/inspectord has something to listen on when run
// without a host process embedding it; it is not a second websocket
// implementation, just a minimal dev/demo bus.
type messageBus struct {
	core *inspector.Core
	hub  *transport.Hub
	log  zerolog.Logger
}

func newMessageBus(core *inspector.Core, hub *transport.Hub) *messageBus {
	return &messageBus{core: core, hub: hub, log: telemetry.WithComponent("bus")}
}

// listenAndServe accepts connections on addr until the listener is closed,
// serving each one on its own goroutine.
func (b *messageBus) listenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go b.serve(conn)
	}
}

func (b *messageBus) serve(netConn net.Conn) {
	c := newLineConn(netConn)
	session, err := b.core.HandleConnect(c)
	if err != nil {
		b.log.Warn().Err(err).Str("remote", c.RemoteAddr()).Msg("connection rejected")
		netConn.Close()
		return
	}
	defer b.core.HandleDisconnect(session)
	defer netConn.Close()

	scanner := bufio.NewScanner(netConn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msgType, data, errMsg := transport.ParseFrame(line)
		if errMsg != "" {
			_ = session.Send(model.Frame{Type: model.MsgError, Data: model.ErrorData{Message: errMsg}})
			continue
		}
		b.hub.HandleMessage(session, model.MessageType(msgType), data)
	}
}

// lineConn implements transport.Conn over a net.Conn, writing each frame
// as one JSON object followed by a newline. Writes are serialized since
// broadcast and request/response replies can race on the same connection.
type lineConn struct {
	mu     sync.Mutex
	nc     net.Conn
	writer *bufio.Writer
}

func newLineConn(nc net.Conn) *lineConn {
	return &lineConn{nc: nc, writer: bufio.NewWriter(nc)}
}

func (c *lineConn) Send(frame model.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := c.writer.Write(data); err != nil {
		return err
	}
	if err := c.writer.WriteByte('\n'); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *lineConn) Close(code int, reason string) error {
	return c.nc.Close()
}

func (c *lineConn) RemoteAddr() string {
	return c.nc.RemoteAddr().String()
}
