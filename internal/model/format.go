package model

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	ioutils "github.com/handiism/comic-downloader/internal/io"
)

const orderVar = "order"

// placeholder matches escaped braces or a {name} / {name:spec} placeholder.
var placeholder = regexp.MustCompile(`\{\{|\}\}|\{(\w+)(?::([^{}]*))?\}`)

// fmtSpec is a parsed "[fill][align][width]" placeholder spec such as "0>4".
type fmtSpec struct {
	fill  rune
	align byte
	width int
}

func parseSpec(spec string) (fmtSpec, error) {
	s := fmtSpec{fill: ' ', align: '<'}
	if spec == "" {
		return s, nil
	}

	isAlign := func(b byte) bool { return b == '<' || b == '>' || b == '^' }

	r, size := utf8.DecodeRuneInString(spec)
	switch {
	case len(spec) > size && isAlign(spec[size]):
		s.fill, s.align = r, spec[size]
		spec = spec[size+1:]
	case isAlign(spec[0]):
		s.align = spec[0]
		spec = spec[1:]
	case spec[0] == '0' && len(spec) > 1:
		// "04" zero-pads to the right edge like a number.
		s.fill, s.align = '0', '>'
		spec = spec[1:]
	}

	if spec == "" {
		return s, nil
	}
	width, err := strconv.Atoi(spec)
	if err != nil || width < 0 {
		return s, fmt.Errorf("invalid width %q", spec)
	}
	s.width = width
	return s, nil
}

func (s fmtSpec) pad(value string) string {
	n := s.width - utf8.RuneCountInString(value)
	if n <= 0 {
		return value
	}
	fill := string(s.fill)
	switch s.align {
	case '>':
		return strings.Repeat(fill, n) + value
	case '^':
		left := n / 2
		return strings.Repeat(fill, left) + value + strings.Repeat(fill, n-left)
	default:
		return value + strings.Repeat(fill, n)
	}
}

// padOrder applies spec to the integer part of a decimal order only, so
// "5.1" with "0>4" becomes "0005.1" rather than "05.1".
func padOrder(spec fmtSpec, order string) string {
	intPart, frac, found := strings.Cut(order, ".")
	padded := spec.pad(intPart)
	if found && strings.Trim(frac, "0") != "" {
		return padded + "." + frac
	}
	return padded
}

// formatTemplate substitutes vars into tmpl. Every value is passed through
// the filename filter before substitution.
func formatTemplate(tmpl string, vars map[string]string) (string, error) {
	var firstErr error
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		switch m {
		case "{{":
			return "{"
		case "}}":
			return "}"
		}
		groups := placeholder.FindStringSubmatch(m)
		name, rawSpec := groups[1], groups[2]

		value, ok := vars[name]
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("unknown placeholder {%s}", name)
			}
			return m
		}
		spec, err := parseSpec(rawSpec)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("placeholder {%s}: %w", name, err)
			}
			return m
		}

		value = ioutils.SanitizeFileName(value)
		if name == orderVar {
			return padOrder(spec, value)
		}
		return spec.pad(value)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// formatPath renders tmpl and turns its "/" separated segments into a
// relative path. Empty segments are dropped.
func formatPath(tmpl string, vars map[string]string) (string, error) {
	rendered, err := formatTemplate(tmpl, vars)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, seg := range strings.Split(rendered, "/") {
		seg = strings.TrimSpace(seg)
		if seg != "" && seg != "." && seg != ".." {
			parts = append(parts, seg)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("template %q renders to an empty path", tmpl)
	}
	return filepath.Join(parts...), nil
}
