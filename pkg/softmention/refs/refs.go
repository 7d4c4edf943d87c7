// Package refs resolves bibliographic reference callouts and attaches them
// to software entities.
package refs

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/cognicore/softmention/pkg/softmention/internalerr"
	"github.com/cognicore/softmention/pkg/softmention/mention"
)

// Window is the slack in bytes allowed between the end of an entity and
// the start of a reference callout that still belongs to it.
const Window = 5

// Callout is a citation marker found in the text before it is resolved
// against the bibliography. Target is the marker's link, e.g. "#b3".
type Callout struct {
	Target string       `json:"target"`
	Raw    string       `json:"text"`
	Span   mention.Span `json:"span"`
}

// ParseKey turns a callout target into a bibliography index. Accepted
// forms are "#b<N>" and a bare "<N>".
func ParseKey(target string) (int, error) {
	s := strings.TrimSpace(target)
	s = strings.TrimPrefix(s, "#b")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return -1, fmt.Errorf("%w: %q", internalerr.ErrMalformedRefKey, target)
	}
	return n, nil
}

// Resolve maps callouts onto a bibliography of size entries. Callouts with
// a malformed or out of range key are logged and skipped. The result is in
// document order.
func Resolve(callouts []Callout, size int, logger *slog.Logger) []mention.BiblioRef {
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]mention.BiblioRef, 0, len(callouts))
	for _, c := range callouts {
		key, err := ParseKey(c.Target)
		if err != nil {
			logger.Warn("skipping reference callout", "target", c.Target, "span", c.Span.String(), "error", err)
			continue
		}
		if key >= size {
			logger.Warn("skipping reference callout", "target", c.Target, "span", c.Span.String(),
				"error", fmt.Errorf("%w: index %d outside bibliography of %d", internalerr.ErrMalformedRefKey, key, size))
			continue
		}
		out = append(out, mention.BiblioRef{RefKey: key, Raw: c.Raw, Span: c.Span})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Span.Start < out[j].Span.Start })
	return out
}

// FilterByCallout clears every version component that coincides with a
// reference callout, i.e. when either span contains the other. It must run
// before Attach. The input slice is not modified.
func FilterByCallout(entities []mention.Entity, refs []mention.BiblioRef) []mention.Entity {
	out := make([]mention.Entity, len(entities))
	for i, e := range entities {
		out[i] = e.Clone()
		if e.Version == nil {
			continue
		}
		v := e.Version.Span
		for _, r := range refs {
			if r.Span.Contains(v) || v.Contains(r.Span) {
				out[i].ClearField(mention.KindVersion)
				break
			}
		}
	}
	return out
}

// Attach adds to each entity the references starting between the end of
// its name and Window bytes past its last component. Every attached
// reference extends that limit, so adjacent callouts chain. refs must be in
// document order. The input slice is not modified.
func Attach(entities []mention.Entity, refs []mention.BiblioRef) []mention.Entity {
	out := make([]mention.Entity, len(entities))
	for i, e := range entities {
		out[i] = e.Clone()
		if len(refs) == 0 {
			continue
		}

		from := e.Name.Span.End
		endPos := e.EndPos()
		for _, r := range refs {
			if r.Span.Start >= from && r.Span.Start <= endPos+Window {
				out[i].AddRef(r)
				endPos = r.Span.End
			}
		}
	}
	return out
}
