// Package embed normalizes user-supplied Facebook embed input into a
// canonical content URL.
package embed

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNotFound means the input contains no recognizable Facebook URL,
// neither as a direct link nor inside an iframe embed snippet. This is a
// normal outcome for malformed or non-Facebook input, not a fault.
var ErrNotFound = errors.New("no facebook url found")

// contentURLPattern enforces domain membership only. Facebook's URL
// grammar for posts, videos and notes is too varied to validate
// structurally; semantic validity is left to the oEmbed endpoint.
var contentURLPattern = regexp.MustCompile(`(?i)^https://(www\.)?facebook\.com/`)

// Parse converts raw embed input into a canonical content URL.
//
// The input is either a bare facebook.com URL, returned trimmed and
// otherwise unchanged, or an HTML snippet containing an <iframe> whose
// src carries the content URL in its href query parameter. Anything else
// yields ErrNotFound.
func Parse(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrNotFound
	}

	if contentURLPattern.MatchString(trimmed) {
		return trimmed, nil
	}

	return parseSnippet(trimmed)
}

// parseSnippet extracts the content URL from an iframe embed snippet. A
// failed HTML parse is equivalent to "no iframe found".
func parseSnippet(snippet string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return "", ErrNotFound
	}

	var content string
	doc.Find("iframe[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if !ok {
			return true
		}
		srcURL, err := url.Parse(src)
		if err != nil {
			return true
		}
		href := srcURL.Query().Get("href")
		if href == "" || !contentURLPattern.MatchString(href) {
			return true
		}
		content = href
		return false
	})

	if content == "" {
		return "", ErrNotFound
	}
	return content, nil
}
