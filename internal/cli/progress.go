package cli

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// TaskProgress renders the progress of a server-side generation task
// while the poller waits for it to finish.
type TaskProgress struct {
	bar *progressbar.ProgressBar
}

// NewTaskProgress creates a 0-100 progress bar for one task.
func NewTaskProgress(out io.Writer, description string) *TaskProgress {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &TaskProgress{bar: bar}
}

// Update sets the bar to the task's reported progress fraction (0..1).
func (t *TaskProgress) Update(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	_ = t.bar.Set(int(fraction * 100))
}

// Finish fills and closes the bar.
func (t *TaskProgress) Finish() {
	_ = t.bar.Finish()
}
