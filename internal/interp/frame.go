package interp

import (
	"regexp"
	"strings"
)

const (
	startMarker  = "startContent:"
	endMarker    = "endContent:"
	doneMarker   = "doneExecution:"
	refusalToken = "ConnectionRefused"

	readChunkSize = 1024
)

// fatalPattern matches remote fatal exception report lines.
var fatalPattern = regexp.MustCompile(`java\.lang\.\w*Exception`)

// encodeSubmission wraps payload with the correlation markers for one
// submission. The result is sent as a single write.
func encodeSubmission(id, payload string) []byte {
	var b strings.Builder
	b.Grow(len(startMarker) + len(endMarker) + 2*len(id) + len(payload) + 3)
	b.WriteString(startMarker)
	b.WriteString(id)
	b.WriteByte('\n')
	b.WriteString(payload)
	b.WriteByte('\n')
	b.WriteString(endMarker)
	b.WriteString(id)
	b.WriteByte('\n')
	return []byte(b.String())
}

// completionMarker is the sole completion signal for a submission. The
// remote side emits it somewhere in its output stream; there is no
// structured response envelope.
func completionMarker(id string) string {
	return doneMarker + id
}

// fatalLines returns the lines of chunk matching the fatal pattern, in order.
func fatalLines(chunk string) []string {
	var out []string
	for _, line := range strings.Split(chunk, "\n") {
		if fatalPattern.MatchString(line) {
			out = append(out, line)
		}
	}
	return out
}
