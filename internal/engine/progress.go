package engine

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// NewProgressBar renders completed/total on w.
func NewProgressBar(w io.Writer, total int) Progress {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Downloading"),
		progressbar.OptionSetItsString("img"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(w, "\n")
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

type noopProgress struct{}

func (noopProgress) Add(int) error { return nil }
func (noopProgress) Finish() error { return nil }

// NoProgress discards progress ticks.
func NoProgress(io.Writer, int) Progress { return noopProgress{} }
