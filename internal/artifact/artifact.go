// Package artifact wraps a normalized animation into a self-contained
// embeddable fragment and writes it to the output directory, one slot per
// demo name.
package artifact

import "encoding/base64"

const (
	artifactPrefix = `<img src="data:image/svg+xml;base64,`
	artifactSuffix = `" />`
)

// Ext is the slot extension; the fragments are pasted straight into HTML and
// Markdown documentation pages.
const Ext = ".html"

// Encode produces the embeddable fragment: a fixed markup wrapper around the
// base64-encoded animation. The wrapper bytes are format-stable; docs link
// against them as-is.
func Encode(anim []byte) []byte {
	enc := base64.StdEncoding

	out := make([]byte, 0, len(artifactPrefix)+enc.EncodedLen(len(anim))+len(artifactSuffix))
	out = append(out, artifactPrefix...)

	b64 := make([]byte, enc.EncodedLen(len(anim)))
	enc.Encode(b64, anim)
	out = append(out, b64...)

	return append(out, artifactSuffix...)
}
