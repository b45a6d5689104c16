package scan

import (
	"net/url"
	"regexp"
	"strings"
)

var productPath = regexp.MustCompile(`(?i)/product[_-]([\w-]+)`)

// ExtractProductID turns a decoded code into a product identifier. Links of
// the form https://host/?add=<id>, https://host/product_<id> and
// https://host/.../<id> are understood; a leading "@" before a link is
// ignored. Anything that is not an http(s) link is used as-is.
func ExtractProductID(raw string) string {
	value := strings.TrimSpace(raw)
	link := strings.TrimPrefix(value, "@")
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return value
	}

	u, err := url.Parse(link)
	if err != nil {
		return value
	}
	if id := u.Query().Get("add"); id != "" {
		return id
	}
	if m := productPath.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	parts := strings.Split(link, "/")
	return parts[len(parts)-1]
}
