package docsite

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/plugintools/metrics"
)

const (
	elementList = "element-list"
	packageList = "package-list"

	// Versions assumed when index.html does not name the javadoc release.
	defaultModularVersion = "11"
	defaultLegacyVersion  = "1.8"
)

// LoadSite fetches the package index of an online site, element-list first
// and package-list second, and determines its generation from index.html.
func LoadSite(ctx context.Context, client *HTTPClient, baseURL string) (*Site, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	fallbackVersion := defaultModularVersion
	body, err := client.Get(ctx, base.ResolveReference(&url.URL{Path: elementList}))
	if err != nil {
		log.Debugf("no %s at %s: %s", elementList, base, err)
		fallbackVersion = defaultLegacyVersion
		body, err = client.Get(ctx, base.ResolveReference(&url.URL{Path: packageList}))
		if err != nil {
			return nil, fmt.Errorf("load package index of %s: %w", base, err)
		}
	}
	packages := parsePackageIndex(body)

	version := fallbackVersion
	if index, err := client.Get(ctx, base.ResolveReference(&url.URL{Path: "index.html"})); err == nil {
		if v := sniffToolVersion(index); v != "" {
			version = v
		}
	} else {
		log.Debugf("no index.html at %s: %s", base, err)
	}
	gen, err := GenerationFor(version)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", base, err)
	}
	log.Infof("loaded javadoc site %s (%s, %d packages)", base, gen, len(packages))
	return &Site{base: base, generation: gen, packages: packages}, nil
}

// LoadSites loads each external site concurrently. Sites that cannot be
// loaded are logged and left out; the rest keep their configured order.
func LoadSites(ctx context.Context, client *HTTPClient, baseURLs []string) []*Site {
	loaded := make([]*Site, len(baseURLs))
	g, gctx := errgroup.WithContext(ctx)
	for i, raw := range baseURLs {
		g.Go(func() error {
			site, err := LoadSite(gctx, client, raw)
			if err != nil {
				log.Warningf("could not use %s as javadoc site: %s", raw, err)
				return nil
			}
			loaded[i] = site
			return nil
		})
	}
	_ = g.Wait()

	var sites []*Site
	for _, s := range loaded {
		if s != nil {
			sites = append(sites, s)
		}
	}
	metrics.SitesLoaded.WithLabelValues("external").Set(float64(len(sites)))
	return sites
}

// parsePackageIndex reads an element-list or package-list. Lines of the
// form "module:name" set the module of the packages that follow.
func parsePackageIndex(body []byte) map[string]string {
	packages := map[string]string{}
	module := ""
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if m, ok := strings.CutPrefix(line, "module:"); ok {
			module = m
			continue
		}
		packages[line] = module
	}
	return packages
}

var generatedByPattern = regexp.MustCompile(`Generated by javadoc \(([^)\s]+)`)

// sniffToolVersion finds the javadoc release in the "Generated by javadoc"
// comment or the generator meta tag of an index page.
func sniffToolVersion(page []byte) string {
	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.CommentToken:
			if m := generatedByPattern.FindSubmatch(z.Text()); m != nil {
				return string(m[1])
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			var name, content string
			for _, a := range tok.Attr {
				switch a.Key {
				case "name":
					name = a.Val
				case "content":
					content = a.Val
				}
			}
			if name != "generator" {
				continue
			}
			if m := generatedByPattern.FindStringSubmatch("Generated by " + content); m != nil {
				return m[1]
			}
		}
	}
}
