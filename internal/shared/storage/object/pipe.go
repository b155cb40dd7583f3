package object

import (
	"context"
	"io"
)

// UploadFunc consumes the streamed payload and reports the stored result.
type UploadFunc func(ctx context.Context, r io.Reader) (Result, error)

type pipeUpload struct {
	pw   *io.PipeWriter
	done chan Outcome
}

// NewPipeUpload starts fn on its own goroutine, fed by the returned StreamUpload.
// Providers whose SDK reads from an io.Reader use it to expose a write side.
func NewPipeUpload(ctx context.Context, fn UploadFunc) StreamUpload {
	pr, pw := io.Pipe()
	done := make(chan Outcome, 1)
	go func() {
		res, err := fn(ctx, pr)
		if err != nil {
			_ = pr.CloseWithError(err)
		} else {
			_ = pr.Close()
		}
		done <- Outcome{Result: res, Err: err}
		close(done)
	}()
	return &pipeUpload{pw: pw, done: done}
}

func (p *pipeUpload) Write(b []byte) (int, error) {
	return p.pw.Write(b)
}

func (p *pipeUpload) Close() error {
	return p.pw.Close()
}

func (p *pipeUpload) CloseWithError(err error) error {
	return p.pw.CloseWithError(err)
}

func (p *pipeUpload) Done() <-chan Outcome {
	return p.done
}
