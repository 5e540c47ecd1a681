package experiment

import (
	"fmt"
	"io"

	"github.com/gosuri/uilive"

	"github.com/raharth/gomatch/learner"
)

// Progress renders a live, in-place progress line on the terminal
// with the current epoch, loss and reward statistics.
type Progress struct {
	epochs int
	total  int
	writer *uilive.Writer
	out    io.Writer
}

// NewProgress returns a Progress callback expecting total epochs. The
// caller must Stop() it when the experiment finishes.
func NewProgress(total int) *Progress {
	w := uilive.New()
	w.Start()
	return &Progress{total: total, writer: w, out: w}
}

// OnEpochEnd implements the Callback interface.
func (p *Progress) OnEpochEnd(l learner.Learner,
	result learner.EpochResult) error {
	p.epochs++
	h := l.History()
	_, err := fmt.Fprintf(p.out,
		"epoch %d/%d  loss %.5f  episodes %d  mean reward %.2f  best %.2f\n",
		p.epochs, p.total, result.Loss, h.Episodes(), h.MeanReward(100),
		h.BestReward())
	return err
}

// Stop flushes and releases the live writer.
func (p *Progress) Stop() {
	p.writer.Stop()
}
