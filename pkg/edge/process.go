package edge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/anaminus/parse"
	"go.uber.org/zap"
)

// Helper protocol. All numbers are little-endian uint32.
//
//	request:  count, payloadLength, payload
//	response: status (0 ok), then count*2 bytes of indices
//	          or, if status != 0, messageLength, message
const (
	statusOK     = 0
	statusFailed = 1

	// maxFrame bounds payloads and messages read from the peer.
	maxFrame = 1 << 24
)

// Conn is a Decompressor that forwards each call to a helper speaking the
// request/response protocol over a byte stream.
type Conn struct {
	mu sync.Mutex
	r  *bufio.Reader
	w  io.Writer
}

// NewConn returns a Conn that writes requests to w and reads responses
// from r.
func NewConn(r io.Reader, w io.Writer) *Conn {
	return &Conn{r: bufio.NewReader(r), w: w}
}

// DecompressIndices sends the compressed payload to the helper and copies
// the returned indices into the front of buf.
func (c *Conn) DecompressIndices(count int, buf []byte) error {
	if err := CheckBuffer(count, buf); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	fw := parse.NewBinaryWriter(c.w)
	if fw.Number(uint32(count)) {
		return fw.Err()
	}
	if fw.Number(uint32(len(buf))) {
		return fw.Err()
	}
	if fw.Bytes(buf) {
		return fw.Err()
	}
	if _, err := fw.End(); err != nil {
		return fmt.Errorf("edge: writing request: %w", err)
	}

	fr := parse.NewBinaryReader(c.r)
	var status uint32
	if fr.Number(&status) {
		_, err := fr.End()
		return fmt.Errorf("edge: reading response: %w", err)
	}
	if status != statusOK {
		msg, err := readMessage(fr)
		if err != nil {
			return fmt.Errorf("edge: reading failure message: %w", err)
		}
		return fmt.Errorf("%w: %s", ErrHelperFailed, msg)
	}
	fr.Bytes(buf[:count*2])
	if _, err := fr.End(); err != nil {
		return fmt.Errorf("edge: reading indices: %w", err)
	}
	return nil
}

func readMessage(fr *parse.BinaryReader) (string, error) {
	var n uint32
	if fr.Number(&n) {
		_, err := fr.End()
		return "", err
	}
	if n > maxFrame {
		return "", fmt.Errorf("message length %d exceeds limit", n)
	}
	msg := make([]byte, n)
	fr.Bytes(msg)
	if _, err := fr.End(); err != nil {
		return "", err
	}
	return string(msg), nil
}

// Serve answers requests read from r by running d and writing responses to
// w, until r reaches EOF between requests. A helper executable wrapping a
// native decompressor is a thin main around Serve.
func Serve(r io.Reader, w io.Writer, d Decompressor) error {
	br := bufio.NewReader(r)
	for {
		if _, err := br.Peek(1); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		fr := parse.NewBinaryReader(br)
		var count, length uint32
		fr.Number(&count)
		fr.Number(&length)
		if _, err := fr.End(); err != nil {
			return fmt.Errorf("edge: reading request header: %w", err)
		}
		if length > maxFrame {
			return fmt.Errorf("edge: request payload %d exceeds limit", length)
		}
		buf := make([]byte, length)
		fr = parse.NewBinaryReader(br)
		fr.Bytes(buf)
		if _, err := fr.End(); err != nil {
			return fmt.Errorf("edge: reading request payload: %w", err)
		}

		fw := parse.NewBinaryWriter(w)
		err := CheckBuffer(int(count), buf)
		if err == nil {
			err = d.DecompressIndices(int(count), buf)
		}
		if err != nil {
			msg := err.Error()
			fw.Number(uint32(statusFailed))
			fw.Number(uint32(len(msg)))
			fw.Bytes([]byte(msg))
		} else {
			fw.Number(uint32(statusOK))
			fw.Bytes(buf[:count*2])
		}
		if _, err := fw.End(); err != nil {
			return fmt.Errorf("edge: writing response: %w", err)
		}
	}
}

// Process runs a helper executable and talks to it over its standard
// input and output. It re-hosts a native decompressor that cannot be linked
// into this binary.
type Process struct {
	*Conn

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	logger *zap.Logger
}

// StartProcess launches the helper at path. The helper lives until Close
// is called or ctx is cancelled.
func StartProcess(ctx context.Context, logger *zap.Logger, path string, args ...string) (*Process, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cmd := exec.CommandContext(ctx, path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("edge: helper stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("edge: helper stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("edge: starting helper %s: %w", path, err)
	}
	logger.Debug("edge helper started", zap.String("path", path), zap.Int("pid", cmd.Process.Pid))

	return &Process{
		Conn:   NewConn(stdout, stdin),
		cmd:    cmd,
		stdin:  stdin,
		logger: logger,
	}, nil
}

// Close ends the helper's input and waits for it to exit.
func (p *Process) Close() error {
	if err := p.stdin.Close(); err != nil {
		p.logger.Warn("closing edge helper stdin", zap.Error(err))
	}
	err := p.cmd.Wait()
	p.logger.Debug("edge helper exited", zap.Error(err))
	return err
}
