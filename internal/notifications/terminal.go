package notifications

import (
	"fmt"
	"io"
	"strings"
)

// TerminalSink prints notifications as single lines, for the CLI.
func TerminalSink(w io.Writer) Sink {
	return func(n Notification) {
		fmt.Fprintf(w, "[%s] %s\n", strings.ToUpper(string(n.Level)), n.Message)
	}
}
