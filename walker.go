package mapmarshal

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/reoring/mapmarshal/i18n"
)

// walker carries the state of a single Marshal or Unmarshal call.
type walker struct {
	m       *Marshaller
	log     *zap.Logger
	depth   int
	unknown []UnknownProperty
}

func (m *Marshaller) newWalker() *walker {
	return &walker{m: m, log: m.logger}
}

// enter accounts for one level of entry nesting.
func (w *walker) enter(ref, path string) error {
	if w.m.maxDepth > 0 && w.depth >= w.m.maxDepth {
		limit := strconv.Itoa(w.m.maxDepth)
		return &Error{
			Code:    CodeDepthExceeded,
			Ref:     ref,
			Path:    pathOrRoot(path),
			Message: i18n.T(CodeDepthExceeded, map[string]string{"max": limit}),
		}
	}
	w.depth++
	return nil
}

func (w *walker) leave() { w.depth-- }

func (w *walker) collectUnknown(ref, path, key string, value any) {
	u := UnknownProperty{Path: pathOrRoot(path), Ref: ref, Key: key, Value: value}
	w.unknown = append(w.unknown, u)
	w.log.Debug("unknown property collected",
		zap.String("ref", ref), zap.String("path", u.Path), zap.String("key", key))
	if w.m.onUnknown != nil {
		w.m.onUnknown(u)
	}
}

// subtypeRef resolves a discriminator tag to the entry it selects.
func subtypeRef(d *Discriminator, tag any) (string, bool) {
	if isNil(tag) {
		return "", false
	}
	ref, ok := d.Values[keyText(tag)]
	return ref, ok
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// joinPath appends key to a JSON Pointer. The root pointer is "".
func joinPath(base, key string) string {
	return base + "/" + pointerEscaper.Replace(key)
}

func pathOrRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
