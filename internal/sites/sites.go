// Package sites describes the web sites harvested into the feed directory:
// where a crawl starts, which links it follows and where its files live.
package sites

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnknownSite is returned by Lookup for a name that is not configured.
var ErrUnknownSite = errors.New("unknown site")

// Patterns is a list of values that may be written as a single string in
// configuration files.
type Patterns []string

// Site is the crawl configuration of one web site
type Site struct {
	Name           string
	StartURLs      Patterns
	AllowedDomains Patterns
	DenyDomains    Patterns
	Allow          Patterns
	Deny           Patterns
	Disabled       bool
	JobDir         string
}

// FeedPath returns the feed file the site's records are appended to.
func (s Site) FeedPath(feedDir string) string {
	return filepath.Join(feedDir, s.Name+".jl")
}

// JobPath returns the directory holding the site's resumable crawl state.
func (s Site) JobPath(crawlDir string) string {
	if s.JobDir != "" {
		return s.JobDir
	}
	return filepath.Join(crawlDir, s.Name)
}

// Set is an ordered collection of sites with unique names
type Set struct {
	sites []Site
	index map[string]int
}

// NewSet builds a set, rejecting empty and duplicate names.
func NewSet(sites []Site) (*Set, error) {
	s := &Set{index: make(map[string]int, len(sites))}
	for _, site := range sites {
		if site.Name == "" {
			return nil, errors.New("site without a name")
		}
		if _, ok := s.index[site.Name]; ok {
			return nil, fmt.Errorf("duplicate site %q", site.Name)
		}
		s.index[site.Name] = len(s.sites)
		s.sites = append(s.sites, site)
	}
	return s, nil
}

// All returns every site in configuration order.
func (s *Set) All() []Site {
	out := make([]Site, len(s.sites))
	copy(out, s.sites)
	return out
}

// Names returns the sorted site names.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.sites))
	for _, site := range s.sites {
		names = append(names, site.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a site by name.
func (s *Set) Lookup(name string) (Site, error) {
	i, ok := s.index[name]
	if !ok {
		return Site{}, fmt.Errorf("%w: %s", ErrUnknownSite, name)
	}
	return s.sites[i], nil
}

// Enabled returns the sites that are not disabled.
func (s *Set) Enabled() []Site {
	var out []Site
	for _, site := range s.sites {
		if !site.Disabled {
			out = append(out, site)
		}
	}
	return out
}

// Match returns the first site whose allowed domains cover the URL's host.
func (s *Set) Match(rawURL string) (Site, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return Site{}, false
	}
	for _, site := range s.sites {
		if hostIn(u.Hostname(), site.AllowedDomains) {
			return site, true
		}
	}
	return Site{}, false
}

// hostIn reports whether host equals one of domains or is a subdomain of it.
func hostIn(host string, domains []string) bool {
	host = strings.ToLower(host)
	for _, d := range domains {
		d = strings.ToLower(strings.TrimPrefix(d, "."))
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
