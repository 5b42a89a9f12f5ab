package sites

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/temoto/robotstxt"
)

// DefaultUserAgent is checked against robots.txt groups when none is given.
const DefaultUserAgent = "fwe"

// Extensions of links that never lead to harvestable text.
var ignoredExtensions = map[string]bool{}

func init() {
	for _, ext := range strings.Fields(`
		7z 7zip bz2 gz rar tar xz zip
		mng pct bmp gif jpg jpeg png pst psp tif tiff ai drw dxf eps ps svg cdr ico webp
		mp3 wma ogg wav ra aac mid au aiff
		3gp asf asx avi mov mp4 mpg qt rm swf wmv m4a m4v flv webm
		xls xlsx ppt pptx pps doc docx odt ods odg odp
		css pdf exe bin rss dmg iso apk jar
	`) {
		ignoredExtensions["."+ext] = true
	}
}

// Policy decides whether a discovered link belongs to a site's crawl
type Policy struct {
	site      string
	allowed   []string
	denied    []string
	allow     []*regexp.Regexp
	deny      []*regexp.Regexp
	robots    *robotstxt.Group
	userAgent string
}

// Policy compiles the site's link rules.
func (s Site) Policy() (*Policy, error) {
	allow, err := compileAll(s.Allow)
	if err != nil {
		return nil, fmt.Errorf("site %s: allow: %w", s.Name, err)
	}
	deny, err := compileAll(s.Deny)
	if err != nil {
		return nil, fmt.Errorf("site %s: deny: %w", s.Name, err)
	}
	return &Policy{
		site:      s.Name,
		allowed:   s.AllowedDomains,
		denied:    s.DenyDomains,
		allow:     allow,
		deny:      deny,
		userAgent: DefaultUserAgent,
	}, nil
}

// WithRobots attaches robots.txt rules for agent. An empty agent keeps
// DefaultUserAgent.
func (p *Policy) WithRobots(data []byte, agent string) (*Policy, error) {
	robots, err := robotstxt.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
	}
	if agent != "" {
		p.userAgent = agent
	}
	p.robots = robots.FindGroup(p.userAgent)
	return p, nil
}

// Allows reports whether the crawl should follow rawURL.
func (p *Policy) Allows(rawURL string) bool {
	ok, _ := p.Check(rawURL)
	return ok
}

// Check is Allows with the reason a link was refused.
func (p *Policy) Check(rawURL string) (bool, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, "invalid URL"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false, "scheme " + u.Scheme
	}

	host := u.Hostname()
	if len(p.allowed) > 0 && !hostIn(host, p.allowed) {
		return false, "domain not allowed"
	}
	if hostIn(host, p.denied) {
		return false, "domain denied"
	}
	if ignoredExtensions[strings.ToLower(path.Ext(u.Path))] {
		return false, "binary extension"
	}
	if len(p.allow) > 0 && !matchAny(p.allow, rawURL) {
		return false, "no allow pattern matched"
	}
	if matchAny(p.deny, rawURL) {
		return false, "deny pattern matched"
	}
	if p.robots != nil {
		target := u.EscapedPath()
		if target == "" {
			target = "/"
		}
		if !p.robots.Test(target) {
			return false, "disallowed by robots.txt"
		}
	}
	return true, ""
}

func compileAll(patterns Patterns) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
