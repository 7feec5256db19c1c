package discord

import (
	"errors"
	"regexp"
	"strings"
)

var imageLinkRe = regexp.MustCompile(`(?i)https?://[^"'\s]*\.(?:png|jpg|jpeg|gif)`)

var ErrInvalidImageLink = errors.New("invalid image link")

// ParseImageLink returns the http(s) link to a png, jpg or gif picture
// found in s.
func ParseImageLink(s string) (string, error) {
	link := imageLinkRe.FindString(strings.TrimSpace(s))
	if link == "" {
		return "", ErrInvalidImageLink
	}
	return link, nil
}
