package oembed

import "strings"

// Default oEmbed endpoints. Facebook serves video content from a
// dedicated endpoint; everything else goes through the post endpoint.
const (
	DefaultPostEndpoint  = "https://www.facebook.com/plugins/post/oembed.json/"
	DefaultVideoEndpoint = "https://www.facebook.com/plugins/video/oembed.json/"
)

// Endpoints holds the pair of provider endpoints the resolver chooses
// between.
type Endpoints struct {
	Post  string
	Video string
}

// DefaultEndpoints returns Facebook's production oEmbed endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{Post: DefaultPostEndpoint, Video: DefaultVideoEndpoint}
}

// For selects the endpoint serving the given content URL. The decision is
// a pure string-pattern check: URLs carrying a video path segment go to
// the video endpoint, everything else to the post endpoint.
func (e Endpoints) For(contentURL string) string {
	if strings.Contains(contentURL, "/videos/") || strings.Contains(contentURL, "/video.php/") {
		return e.Video
	}
	return e.Post
}
