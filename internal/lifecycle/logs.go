package lifecycle

import (
	"bufio"
	"io"
	"log/slog"
)

// maxLogLine bounds a single forwarded line.
const maxLogLine = 256 * 1024

// forward logs each line read from rc at info level and closes rc when the
// stream ends.
func forward(rc io.ReadCloser, log *slog.Logger) {
	defer func() { _ = rc.Close() }()

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 4096), maxLogLine)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			log.Info(line)
		}
	}
	if err := sc.Err(); err != nil {
		log.Debug("log stream ended", "error", err)
	}
}
