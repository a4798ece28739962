// Package anim rewrites the timing of a captured terminal animation.
//
// The capture tool emits an SVG whose timeline lives in a CSS animation: one
// animation-duration declaration, percentage-keyed keyframe blocks and a
// terminal "to" (or final 100%) block. Normalize stretches that timeline so
// the loop rests on its final frame for a fixed pause before restarting,
// without changing the relative speed of anything that was captured.
package anim

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ErrMalformed marks captures the normalizer cannot rescale: no duration
// declaration, a non-positive duration, or no terminal state block.
var ErrMalformed = errors.New("malformed animation")

// The capture format's timing grammar. These three tokens are the only parts
// of the document the normalizer touches; everything else passes through
// byte for byte.
var (
	durationRe = regexp.MustCompile(`animation-duration:\s*([0-9]*\.?[0-9]+)s`)
	keyframeRe = regexp.MustCompile(`([0-9]*\.?[0-9]+)%(\s*\{)`)
	toBlockRe  = regexp.MustCompile(`\bto\s*(\{[^}]*\})`)
	endBlockRe = regexp.MustCompile(`\b100(?:\.0*)?%\s*(\{[^}]*\})`)
)

// Normalize extends the animation's loop by endDelay seconds of frozen final
// frame. Every keyframe percentage is rescaled by originalDuration/newDuration
// so the captured sequence plays at unchanged speed, and a copy of the
// terminal state is inserted at the rescaled loop boundary; interpolating
// between two identical states holds the image still for the whole pause.
//
// Not idempotent: normalizing an already-normalized animation extends it
// again. Each capture must pass through here exactly once.
func Normalize(raw []byte, endDelay float64) ([]byte, error) {
	if endDelay <= 0 {
		return nil, fmt.Errorf("end delay must be positive, got %v", endDelay)
	}
	doc := string(raw)

	dm := durationRe.FindStringSubmatch(doc)
	if dm == nil {
		return nil, fmt.Errorf("%w: no animation-duration declaration", ErrMalformed)
	}
	original, err := strconv.ParseFloat(dm[1], 64)
	if err != nil || original <= 0 {
		return nil, fmt.Errorf("%w: bad animation-duration %q", ErrMalformed, dm[1])
	}

	// Terminal state: a "to" block, or with some capture versions an explicit
	// final 100% block. Either way it stays the loop boundary and must not be
	// rescaled itself.
	term := toBlockRe.FindStringSubmatchIndex(doc)
	if term == nil {
		all := endBlockRe.FindAllStringSubmatchIndex(doc, -1)
		if len(all) == 0 {
			return nil, fmt.Errorf("%w: no terminal state block", ErrMalformed)
		}
		term = all[len(all)-1]
	}

	newDuration := original + endDelay
	scale := original / newDuration

	head := rescaleKeyframes(doc[:term[0]], scale)
	terminal := doc[term[0]:term[1]]
	props := doc[term[2]:term[3]]
	tail := rescaleKeyframes(doc[term[1]:], scale)

	boundary := formatPercent(round2(100*scale)) + "% " + props

	out := head + boundary + separator(head) + terminal + tail

	// The duration token carries no '%' so the rescale above left it intact;
	// re-locate it in the rebuilt document and swap in the new value.
	dt := durationRe.FindStringSubmatchIndex(out)
	out = out[:dt[2]] + strconv.FormatFloat(newDuration, 'f', -1, 64) + out[dt[3]:]

	return []byte(out), nil
}

func rescaleKeyframes(s string, scale float64) string {
	return keyframeRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := keyframeRe.FindStringSubmatch(m)
		p, err := strconv.ParseFloat(sub[1], 64)
		if err != nil {
			return m
		}
		return formatPercent(round2(p*scale)) + "%" + sub[2]
	})
}

// round2 rounds to two decimals, ties away from zero. Downstream renderers
// are sensitive to the float format, so the precision is fixed here.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// separator mirrors the whitespace that preceded the terminal block so the
// synthesized keyframe sits on the document's own indentation.
func separator(head string) string {
	i := len(head)
	for i > 0 {
		switch head[i-1] {
		case ' ', '\t', '\n', '\r':
			i--
			continue
		}
		break
	}
	if i == len(head) {
		return " "
	}
	return head[i:]
}
