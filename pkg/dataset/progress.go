package dataset

import (
	"io"
	"sync"
)

// Progress observes a download.
type Progress interface {
	// Start is called when the response arrives.
	//
	// total is the size of the body in bytes, or -1 if unknown.
	// The returned reader is read instead of r.
	Start(total int64, r io.Reader) io.Reader

	// Finish is called when the body has been consumed or abandoned.
	Finish()
}

// observe starts p over body.
//
// The returned reader finishes p when it is closed. Finish is called at most once.
func observe(p Progress, total int64, body io.Reader) io.ReadCloser {
	return &observedBody{Reader: p.Start(total, body), progress: p}
}

type observedBody struct {
	io.Reader
	progress Progress
	once     sync.Once
}

func (o *observedBody) Close() error {
	o.once.Do(o.progress.Finish)
	return nil
}
