package process

import (
	"bufio"
	"bytes"
	"io"
	"log/slog"
)

// maxLineBytes bounds a single forwarded line; longer reads are split.
const maxLineBytes = 1024

// capSplit wraps bufio.ScanLines but forces a split once maxLineBytes is
// buffered, so a child that never emits a newline cannot grow the scan
// buffer unboundedly.
func capSplit(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if len(data) >= maxLineBytes {
		return maxLineBytes, data[:maxLineBytes], nil
	}
	return bufio.ScanLines(data, atEOF)
}

// forwardLines reads newline-delimited output from r and logs each
// non-empty trimmed line tagged with name. It never persists output; it
// only forwards it, per the output-handling contract. It returns once r
// reaches EOF (the child's stream closed).
func forwardLines(log *slog.Logger, name, stream string, r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, maxLineBytes), maxLineBytes)
	sc.Split(capSplit)
	for sc.Scan() {
		line := bytes.TrimRight(sc.Bytes(), " \t\r\n")
		if len(line) == 0 {
			continue
		}
		log.Debug(string(line), "process", name, "stream", stream)
	}
}
