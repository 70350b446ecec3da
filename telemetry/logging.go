package telemetry

import (
	"fmt"
	"io"
	"os"
	"time"
)

// logWriter is the destination for log output.
var logWriter io.Writer = os.Stdout

// startTime anchors elapsed-time-since-start formatting in Logf.
var startTime = time.Now()

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted, elapsed-time-stamped log message, mirroring
// the reference log's timestamped console tiers.
func Logf(format string, args ...interface{}) {
	elapsed := time.Since(startTime).Round(time.Millisecond)
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(logWriter, "[%s] %s\n", elapsed, msg)
}
