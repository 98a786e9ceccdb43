package bridge

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BioHaZard1/mooltipass/lib/protocol"
)

// connection wraps one host connection with the bridge framing: every
// frame is a single length byte followed by that many packet bytes.
type connection struct {
	conn   net.Conn
	config *Config
	log    *logrus.Entry
}

func newConnection(conn net.Conn, cfg *Config, log *logrus.Logger) *connection {
	return &connection{
		conn:   conn,
		config: cfg,
		log:    log.WithField("remote", conn.RemoteAddr().String()),
	}
}

// ReadPacket reads one framed packet. Frames longer than the transport
// packet maximum are a protocol violation and kill the connection.
func (c *connection) ReadPacket() ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout)); err != nil {
		return nil, err
	}

	var lenByte [1]byte
	if _, err := io.ReadFull(c.conn, lenByte[:]); err != nil {
		return nil, err
	}
	if int(lenByte[0]) > protocol.PacketMaxSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds packet maximum", lenByte[0])
	}

	pkt := make([]byte, lenByte[0])
	if _, err := io.ReadFull(c.conn, pkt); err != nil {
		return nil, err
	}
	return pkt, nil
}

// WriteFrame writes one length-prefixed frame.
func (c *connection) WriteFrame(b []byte) error {
	if len(b) > protocol.PacketMaxSize {
		return fmt.Errorf("frame of %d bytes exceeds packet maximum", len(b))
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
		return err
	}
	frame := append([]byte{byte(len(b))}, b...)
	_, err := c.conn.Write(frame)
	return err
}

// Close shuts the underlying connection.
func (c *connection) Close() error {
	return c.conn.Close()
}
