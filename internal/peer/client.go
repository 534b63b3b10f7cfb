// Package peer implements the framed binary TCP client used to pull
// per-block transaction merkle hashes from the node.
//
// Every packet starts with an 8-byte header: total packet size and packet
// type, both little-endian u32. The payload layout is packet-specific.
package peer

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"
)

// PacketType identifies a framed request or response.
type PacketType uint32

// PacketMerkleHashes requests the transaction merkle hashes of one block:
// the request payload is the block height (u64 LE), the response payload
// is the packed 32-byte hash list.
const PacketMerkleHashes PacketType = 0x131

const (
	headerSize     = 8
	maxPayloadSize = 16 << 20
)

// HashSize is the byte length of each returned merkle hash.
const HashSize = 32

// Client issues framed requests over short-lived connections. One
// connection serves one request; the node closes idle peers aggressively,
// so pooling buys nothing here.
type Client struct {
	addr    string
	timeout time.Duration
	dial    func(ctx context.Context, addr string) (net.Conn, error)
}

// NewClient builds a client for the node at host:port.
func NewClient(host string, port int, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		addr:    net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		timeout: timeout,
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		},
	}
}

// Request sends one framed packet and reads the matching response payload.
func (c *Client) Request(ctx context.Context, packetType PacketType, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(ctx, c.addr)
	if err != nil {
		return nil, fmt.Errorf("peer dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("peer deadline: %w", err)
		}
	}

	// Cancel-aware teardown: closing the connection unblocks any pending
	// read or write.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := writePacket(conn, packetType, payload); err != nil {
		return nil, fmt.Errorf("peer write: %w", err)
	}

	gotType, body, err := readPacket(conn)
	if err != nil {
		return nil, fmt.Errorf("peer read: %w", err)
	}
	if gotType != packetType {
		return nil, fmt.Errorf("peer response type %#x, want %#x", gotType, packetType)
	}
	return body, nil
}

// MerkleHashes pulls the transaction merkle hashes of the block at height.
func (c *Client) MerkleHashes(ctx context.Context, height uint64) ([][]byte, error) {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint64(payload, height)

	body, err := c.Request(ctx, PacketMerkleHashes, payload)
	if err != nil {
		return nil, err
	}
	if len(body)%HashSize != 0 {
		return nil, fmt.Errorf("peer merkle payload length %d not a hash multiple", len(body))
	}

	hashes := make([][]byte, 0, len(body)/HashSize)
	for off := 0; off < len(body); off += HashSize {
		hashes = append(hashes, body[off:off+HashSize])
	}
	return hashes, nil
}

func writePacket(w io.Writer, packetType PacketType, payload []byte) error {
	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:], uint32(headerSize+len(payload)))
	binary.LittleEndian.PutUint32(header[4:], uint32(packetType))
	if _, err := w.Write(header); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

func readPacket(r io.Reader) (PacketType, []byte, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	size := binary.LittleEndian.Uint32(header[0:])
	packetType := PacketType(binary.LittleEndian.Uint32(header[4:]))

	if size < headerSize {
		return 0, nil, fmt.Errorf("packet size %d below header", size)
	}
	payloadSize := size - headerSize
	if payloadSize > maxPayloadSize {
		return 0, nil, fmt.Errorf("packet payload %d exceeds cap", payloadSize)
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return packetType, payload, nil
}
