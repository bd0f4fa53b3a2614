// Package oembed resolves Facebook content URLs into embed metadata via
// Facebook's oEmbed endpoints.
package oembed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors surfaced by the resolver and field projection.
var (
	// ErrFetchFailed marks a resolve attempt that failed at the transport
	// or decode level. The failure is cached for the scope, so repeated
	// resolves of the same URL return this without another network call.
	ErrFetchFailed = errors.New("oembed fetch failed")

	// ErrFieldAbsent is returned when a projected field is not present on
	// the record.
	ErrFieldAbsent = errors.New("oembed field absent")
)

// Record holds the oEmbed metadata for one piece of content. Known fields
// are typed; every other provider-supplied field is preserved in Extra.
// Records are never mutated after creation.
type Record struct {
	AuthorName string
	Width      int
	Height     int
	URL        string
	HTML       string
	Extra      map[string]any
}

// UnmarshalJSON decodes a provider response without assuming a closed
// field set. Width and height tolerate both JSON numbers and numeric
// strings, which Facebook has served interchangeably over time.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode oembed object: %w", err)
	}
	// json.Unmarshal leaves the map nil for a "null" body without erroring.
	if fields == nil {
		return fmt.Errorf("decode oembed object: not a JSON object")
	}

	for name, raw := range fields {
		switch name {
		case "author_name":
			if err := json.Unmarshal(raw, &r.AuthorName); err != nil {
				return fmt.Errorf("decode author_name: %w", err)
			}
		case "width":
			n, err := decodeDimension(raw)
			if err != nil {
				return fmt.Errorf("decode width: %w", err)
			}
			r.Width = n
		case "height":
			n, err := decodeDimension(raw)
			if err != nil {
				return fmt.Errorf("decode height: %w", err)
			}
			r.Height = n
		case "url":
			if err := json.Unmarshal(raw, &r.URL); err != nil {
				return fmt.Errorf("decode url: %w", err)
			}
		case "html":
			if err := json.Unmarshal(raw, &r.HTML); err != nil {
				return fmt.Errorf("decode html: %w", err)
			}
		default:
			var value any
			if err := json.Unmarshal(raw, &value); err != nil {
				return fmt.Errorf("decode %s: %w", name, err)
			}
			if r.Extra == nil {
				r.Extra = make(map[string]any)
			}
			r.Extra[name] = value
		}
	}
	return nil
}

// MarshalJSON flattens known fields and extras back into one object.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+5)
	for name, value := range r.Extra {
		out[name] = value
	}
	out["author_name"] = r.AuthorName
	out["width"] = r.Width
	out["height"] = r.Height
	out["url"] = r.URL
	out["html"] = r.HTML
	return json.Marshal(out)
}

// Field projects a named field from the record. Known names come from the
// typed fields; anything else is looked up in Extra. A missing field
// yields ErrFieldAbsent.
func (r *Record) Field(name string) (any, error) {
	if r == nil {
		return nil, ErrFieldAbsent
	}
	switch name {
	case "author_name":
		return r.AuthorName, nil
	case "width":
		return r.Width, nil
	case "height":
		return r.Height, nil
	case "url":
		return r.URL, nil
	case "html":
		return r.HTML, nil
	}
	if value, ok := r.Extra[name]; ok {
		return value, nil
	}
	return nil, ErrFieldAbsent
}

func decodeDimension(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 1 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("numeric string: %w", err)
		}
		return n, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return int(f), nil
}
