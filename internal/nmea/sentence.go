// Package nmea extracts the outer NMEA envelope around an AIS payload:
// the optional landfall timestamp, the station metadata block, and the
// positional AIVDM body. Parsing is a linear walk over '\', ',' and ':';
// no regular expressions on the hot path.
package nmea

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTruncated is returned when the AIVDM body has fewer positional fields
// than the payload position requires.
var ErrTruncated = errors.New("truncated AIVDM body")

// Sentence is one tokenized input line. Group is kept verbatim as the
// x-y-id triple from the g: tag; reassembly strips the fragment index when
// it keys on it.
type Sentence struct {
	Raw          string
	LandfallTime string
	Source       string
	SatTime      string
	Group        string
	Channel      string
	Payload      string
	MessageID    string
	FragCount    int
	FragIndex    int
}

// Singleton reports whether the line carries a complete message on its own.
func (s *Sentence) Singleton() bool {
	return s.FragCount == 1
}

// Parse tokenizes one input line of the form
//
//	[<landfall>\]<meta>*<hh>\!AIVDM,<count>,<index>,<id>,<channel>,<payload>,<pad>*<cs>
//
// Unknown metadata tokens are skipped; a body that cannot be split into the
// required positional fields is an error and the line is dropped by the
// caller.
func Parse(line string) (*Sentence, error) {
	s := &Sentence{Raw: line}

	body := line
	if prefix, rest, ok := strings.Cut(line, `\`); ok {
		if isDigits(prefix) && prefix != "" {
			s.LandfallTime = prefix
		}
		meta, rest2, ok2 := strings.Cut(rest, `\`)
		if ok2 {
			s.parseMeta(meta)
			body = rest2
		} else {
			// Single backslash: no metadata block, the rest is the body.
			body = rest
		}
	}

	if !strings.Contains(body, "VDM") {
		return nil, fmt.Errorf("no AIVDM body in %q", body)
	}

	// Positional fields: talker, count, index, id, channel, payload, pad.
	fields := strings.Split(body, ",")
	if len(fields) < 6 {
		return nil, ErrTruncated
	}

	count, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("fragment count %q: %w", fields[1], err)
	}
	index, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("fragment index %q: %w", fields[2], err)
	}

	s.FragCount = count
	s.FragIndex = index
	s.MessageID = fields[3]
	s.Channel = fields[4]
	s.Payload = fields[5]
	return s, nil
}

// parseMeta splits the station metadata block on commas and dispatches each
// key:value token. The trailing *hh checksum is informational only.
func (s *Sentence) parseMeta(meta string) {
	if i := strings.IndexByte(meta, '*'); i >= 0 {
		meta = meta[:i]
	}
	for meta != "" {
		var token string
		token, meta, _ = strings.Cut(meta, ",")
		key, val, ok := strings.Cut(token, ":")
		if !ok {
			continue
		}
		switch key {
		case "s":
			s.Source = val
		case "c":
			s.SatTime = val
		case "g":
			s.Group = val
		}
	}
}

// GroupKey strips the leading fragment index from an x-y-id group tag,
// yielding the key shared by all fragments of the same message.
func GroupKey(group string) string {
	if _, rest, ok := strings.Cut(group, "-"); ok {
		return rest
	}
	return group
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
