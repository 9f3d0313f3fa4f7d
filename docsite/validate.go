package docsite

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/net/html"
)

// IsLinkValid checks that an absolute URL can be fetched and, when it has a
// fragment, that the page carries a matching id or name anchor. A relative
// URL must name an existing file below baseDir.
func IsLinkValid(ctx context.Context, client *HTTPClient, u *url.URL, baseDir string) bool {
	if !u.IsAbs() {
		path := filepath.Join(baseDir, filepath.FromSlash(u.Path))
		if _, err := os.Stat(path); err != nil {
			log.Debugf("could not find file given through %q in resolved path %q", u, path)
			return false
		}
		return true
	}
	page := *u
	page.Fragment = ""
	page.RawFragment = ""
	body, err := client.Get(ctx, &page)
	if err != nil {
		log.Debugf("link %s is not reachable: %s", u, err)
		return false
	}
	if u.Fragment == "" {
		return true
	}
	return hasAnchor(body, u.Fragment)
}

func hasAnchor(page []byte, anchor string) bool {
	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			for {
				key, val, more := z.TagAttr()
				if (string(key) == "id" || string(key) == "name") && string(val) == anchor {
					return true
				}
				if !more {
					break
				}
			}
		}
	}
}
