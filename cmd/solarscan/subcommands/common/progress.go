package common

import (
	"io"
	"sync"

	"github.com/cheggaaa/pb/v3"
)

const noTotal pb.ProgressBarTemplate = `{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{speed . }}`

// Progress shows dataset downloads as progress bars.
type Progress struct {
	w      io.Writer
	prefix string

	mu  sync.Mutex
	bar *pb.ProgressBar
}

func NewProgress(w io.Writer, prefix string) *Progress {
	return &Progress{w: w, prefix: prefix}
}

func (p *Progress) Start(total int64, r io.Reader) io.Reader {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Finish()
	}

	tpl := pb.Full
	if total < 0 {
		tpl = noTotal
		total = 0
	}
	bar := tpl.New(0)
	bar.SetTotal(total)
	bar.SetWriter(p.w)
	bar.Set(pb.Bytes, true)
	bar.Set("prefix", p.prefix)
	bar.Start()
	p.bar = bar
	return bar.NewProxyReader(r)
}

// Finish stops the current bar. Calling it more than once is harmless.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}
	p.bar.Finish()
	p.bar = nil
}
