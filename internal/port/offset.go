package port

import (
	"regexp"
	"strconv"
	"strings"
)

// ApplyValue offsets a single port value of any supported scalar shape.
//
//   - int → int + offset
//   - "hostPort:containerPort" or "bindIP:hostPort:containerPort" string →
//     host side offset, container side untouched (see ApplyMapping)
//   - anything else → returned unchanged
func ApplyValue(v interface{}, offset int) interface{} {
	if offset == 0 {
		return v
	}
	switch val := v.(type) {
	case int:
		return val + offset
	case string:
		return ApplyMapping(val, offset)
	default:
		return v
	}
}

// ApplyMapping offsets the host-side port of a Docker port mapping string.
//
// Supported forms:
//
//	"3000:3000"       → "3100:3000"  (host:container)
//	"127.0.0.1:80:80" → "127.0.0.1:180:80" (bindIP:host:container)
//
// A protocol suffix on the container side ("5432:5432/tcp") is preserved.
// A single-token string like "3000" is a container-only publication with no
// host side and passes through unchanged, as does any mapping whose host
// segment is not parseable as an integer; malformed mappings are never an
// error here.
func ApplyMapping(s string, offset int) string {
	if offset == 0 {
		return s
	}

	parts := strings.Split(s, ":")
	var hostIdx int
	switch len(parts) {
	case 2:
		// "host:container" — the host side is the first token.
		hostIdx = 0
	case 3:
		// "bindIP:host:container" — the host side is the middle token.
		hostIdx = 1
	default:
		return s
	}

	host, err := strconv.Atoi(parts[hostIdx])
	if err != nil {
		return s
	}

	rewritten := make([]string, len(parts))
	copy(rewritten, parts)
	rewritten[hostIdx] = strconv.Itoa(host + offset)
	return strings.Join(rewritten, ":")
}

// envPortLine matches lines of the exact form NAME=INTEGER. The key check
// for the literal substring "PORT" happens separately so the expression
// stays readable.
var envPortLine = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)=([0-9]+)$`)

// ApplyEnvText offsets every KEY=INTEGER line whose key contains the
// literal, case-sensitive substring "PORT". All other lines — comments,
// blank lines, non-numeric values, keys without PORT — pass through
// byte-identical, and line order is preserved exactly.
func ApplyEnvText(text string, offset int) string {
	if offset == 0 {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := envPortLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if !strings.Contains(m[1], "PORT") {
			continue
		}
		value, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		lines[i] = m[1] + "=" + strconv.Itoa(value+offset)
	}

	return strings.Join(lines, "\n")
}
