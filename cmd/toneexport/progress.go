package main

import (
	"io"
	"path"
	"time"

	"github.com/schollz/progressbar/v3"

	"toneexport/internal/fetch"
)

// newProgressFunc renders one byte-count bar per download on w. Unknown
// lengths fall back to a spinner.
func newProgressFunc(w io.Writer) fetch.ProgressFunc {
	return func(src string, total int64) fetch.ProgressReporter {
		if total <= 0 {
			total = -1
		}
		return progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("fetch "+path.Base(src)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
}
