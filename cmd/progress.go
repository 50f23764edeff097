package cmd

import (
	"fmt"
	"io"

	"group-renamer/internal/engine"

	"github.com/gosuri/uiprogress"
)

// progressBar draws one bar over the discovered tables: every table is
// validated, then renamed, so a real run has two steps per table.
type progressBar struct {
	out      io.Writer
	dryRun   bool
	progress *uiprogress.Progress
	bar      *uiprogress.Bar
	stage    engine.Stage
}

func newProgressBar(out io.Writer, dryRun bool) *progressBar {
	return &progressBar{out: out, dryRun: dryRun}
}

func (p *progressBar) Observe(e engine.Event) {
	switch e.Kind {
	case engine.EventStageEntered:
		p.stage = e.Stage
	case engine.EventTablesDiscovered:
		if e.Count == 0 {
			return
		}
		steps := int(e.Count)
		if !p.dryRun {
			steps *= 2
		}
		p.progress = uiprogress.New()
		p.progress.SetOut(p.out)
		p.bar = p.progress.AddBar(steps).AppendCompleted().PrependElapsed()
		p.bar.PrependFunc(func(b *uiprogress.Bar) string {
			if p.stage == engine.StageCommitting {
				return "Renaming:   "
			}
			return "Validating: "
		})
		p.progress.Start()
	case engine.EventTableValidated, engine.EventTableApplied:
		if p.bar != nil {
			p.bar.Incr()
		}
	case engine.EventRunFinished:
		p.Stop()
	}
}

// Stop halts rendering. It is safe to call more than once.
func (p *progressBar) Stop() {
	if p.progress == nil {
		return
	}
	p.progress.Stop()
	p.progress = nil
	fmt.Fprintln(p.out)
}
