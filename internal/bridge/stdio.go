package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
)

const maxScannerBuffer = 10 * 1024 * 1024 // 10MB

// StdioTransport talks to the backend via stdin/stdout of a spawned process.
// Requests carry unique numeric ids; responses are correlated back to their
// waiting caller through the pending map.
type StdioTransport struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner

	pending   map[int64]chan *Response
	mu        sync.Mutex
	writeMu   sync.Mutex
	nextID    atomic.Int64
	done      chan struct{}
	closeOnce sync.Once
}

// SpawnStdioTransport starts the backend command and wires a transport to it.
func SpawnStdioTransport(ctx context.Context, command string, args ...string) (*StdioTransport, error) {
	cmd := exec.CommandContext(ctx, command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting bridge backend %q: %w", command, err)
	}

	t := newStdioTransport(stdin, stdout)
	t.cmd = cmd
	return t, nil
}

// NewPipeTransport wires a transport over arbitrary pipes. Used for in-process
// backends and tests.
func NewPipeTransport(w io.WriteCloser, r io.Reader) *StdioTransport {
	return newStdioTransport(w, r)
}

func newStdioTransport(w io.WriteCloser, r io.Reader) *StdioTransport {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, maxScannerBuffer), maxScannerBuffer)

	t := &StdioTransport{
		stdin:   w,
		scanner: scanner,
		pending: make(map[int64]chan *Response),
		done:    make(chan struct{}),
	}
	go t.recvLoop()
	return t
}

// Send sends a request and waits for the matching response.
func (t *StdioTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	req.JSONRPC = jsonRPCVersion
	if req.ID == 0 {
		req.ID = t.nextID.Add(1)
	}

	ch := make(chan *Response, 1)
	t.mu.Lock()
	t.pending[req.ID] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.pending, req.ID)
		t.mu.Unlock()
	}()

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	data = append(data, '\n')

	// One request line per write; concurrent senders must not interleave.
	t.writeMu.Lock()
	_, err = t.stdin.Write(data)
	t.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-ch:
		return resp, nil
	case <-t.done:
		return nil, fmt.Errorf("transport closed")
	}
}

// Close shuts down the transport and waits for a spawned backend to exit.
func (t *StdioTransport) Close() error {
	var closeErr error
	t.closeOnce.Do(func() {
		close(t.done)
		t.stdin.Close()
		if t.cmd != nil {
			closeErr = t.cmd.Wait()
		}
	})
	return closeErr
}

// recvLoop reads responses from the backend and dispatches them by id.
// Lines without a known id are dropped.
func (t *StdioTransport) recvLoop() {
	for t.scanner.Scan() {
		line := t.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil || resp.ID == 0 {
			continue
		}

		t.mu.Lock()
		ch, ok := t.pending[resp.ID]
		t.mu.Unlock()
		if ok {
			ch <- &resp
		}
	}
}
