package cmd

import (
	"github.com/gosuri/uiprogress"
)

// progress is a statement counter bar. The zero value draws nothing.
type progress struct {
	bar *uiprogress.Bar
}

func startProgress(label string, total int, enabled bool) *progress {
	if !enabled || quiet || total == 0 {
		return &progress{}
	}
	uiprogress.Start()
	bar := uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return label + ": "
	})
	return &progress{bar: bar}
}

func (p *progress) Incr() {
	if p.bar != nil {
		p.bar.Incr()
	}
}

func (p *progress) Stop() {
	if p.bar != nil {
		uiprogress.Stop()
	}
}
