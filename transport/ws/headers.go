package ws

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/opd-ai/streamcore/options"
)

// ParseHeaders parses "Key: Value" lines into a header set. Blank lines
// are ignored.
func ParseHeaders(s string) (http.Header, error) {
	h := make(http.Header)
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: malformed header line %q", options.ErrInvalidArgument, line)
		}
		h.Add(key, strings.TrimSpace(value))
	}
	return h, nil
}

// FormatHeaders renders h as sorted "Key: Value" lines.
func FormatHeaders(h http.Header) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range h[k] {
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func checkHeaders(s string) error {
	_, err := ParseHeaders(s)
	return err
}
