// Package worker runs layout computations in a separate process.
//
// The parent starts `bookmap worker`, waits for the ready line and then
// exchanges newline-delimited JSON: one Request per line on the child's
// stdin, one Response per line on its stdout. Only item ids, raw topic
// strings and the resulting coordinates cross the boundary.
package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/jespino/bookmap/pkg/layout"
	"github.com/jespino/bookmap/pkg/projection"
)

const (
	StatusReady = "ready"

	// maxLineSize bounds one protocol line. A request for tens of thousands
	// of books with long theme strings fits comfortably.
	maxLineSize = 64 * 1024 * 1024
)

type Ready struct {
	Status string `json:"status"`
}

type Request struct {
	Items []layout.Item `json:"items"`
}

type Response struct {
	Coords projection.Coordinates `json:"coords"`
	Error  string                 `json:"error,omitempty"`
}

// Serve announces readiness on out and answers requests read from in until
// in is exhausted or ctx is cancelled.
func Serve(ctx context.Context, in io.Reader, out io.Writer, computer layout.Computer) error {
	enc := json.NewEncoder(out)
	if err := enc.Encode(Ready{Status: StatusReady}); err != nil {
		return errors.Wrap(err, "failed to write ready line")
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp Response
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			resp.Error = errors.Wrap(err, "invalid request").Error()
		} else if coords, err := computer.Compute(ctx, req.Items); err != nil {
			resp.Error = err.Error()
		} else {
			resp.Coords = coords
		}

		if err := enc.Encode(resp); err != nil {
			return errors.Wrap(err, "failed to write response")
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "failed to read request")
	}
	return nil
}

// Call runs cmd as a one-shot worker: it waits for the ready line, sends
// items, reads the response and lets the child exit. cmd should be built
// with exec.CommandContext so that cancelling the context kills the child.
func Call(ctx context.Context, cmd *exec.Cmd, items []layout.Item) (projection.Coordinates, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open worker stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open worker stdout")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start worker")
	}

	coords, callErr := exchange(stdin, stdout, items)
	stdin.Close()
	// Drain whatever is left so Wait does not block on a full pipe.
	_, _ = io.Copy(io.Discard, stdout)
	waitErr := cmd.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if callErr != nil {
		return nil, callErr
	}
	if waitErr != nil {
		return nil, errors.Wrap(waitErr, "worker exited with error")
	}
	return coords, nil
}

func exchange(stdin io.Writer, stdout io.Reader, items []layout.Item) (projection.Coordinates, error) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var ready Ready
	if err := readLine(scanner, &ready); err != nil {
		return nil, errors.Wrap(err, "worker did not become ready")
	}
	if ready.Status != StatusReady {
		return nil, errors.Errorf("unexpected worker status %q", ready.Status)
	}

	if err := json.NewEncoder(stdin).Encode(Request{Items: items}); err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}

	var resp Response
	if err := readLine(scanner, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	if resp.Coords == nil {
		resp.Coords = projection.Coordinates{}
	}
	return resp.Coords, nil
}

func readLine(scanner *bufio.Scanner, v any) error {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return err
		}
		return io.ErrUnexpectedEOF
	}
	return json.Unmarshal(scanner.Bytes(), v)
}
