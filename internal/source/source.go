// Package source turns a background reference (local file, template path,
// remote URL, data URL or PDF) into a decoded image.
package source

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrEmptySource = errors.New("empty image source")
	ErrNoTemplate  = errors.New("no template parameter")
)

// Kind classifies a background reference.
type Kind int

const (
	KindFile Kind = iota
	KindTemplate
	KindRemote
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindTemplate:
		return "template"
	case KindRemote:
		return "remote"
	case KindData:
		return "data"
	}
	return "file"
}

// Classify decides how src is fetched. Root-relative paths such as
// "/templates/1.jpeg" are templates served from the templates directory.
func Classify(src string) Kind {
	lower := strings.ToLower(src)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return KindRemote
	case strings.HasPrefix(lower, "data:"):
		return KindData
	case strings.HasPrefix(src, "/templates/"):
		return KindTemplate
	}
	return KindFile
}

// TemplateFromQuery extracts and percent-decodes the "template" parameter
// of an editor query string. A leading "?" is accepted.
func TemplateFromQuery(rawQuery string) (string, error) {
	q, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		return "", fmt.Errorf("parse query: %w", err)
	}
	t := q.Get("template")
	if t == "" {
		return "", ErrNoTemplate
	}
	return t, nil
}
