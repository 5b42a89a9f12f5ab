package sites

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidSite indicates a site entry that cannot be decoded
	ErrInvalidSite = errors.New("invalid site configuration")
	// ErrUnsupportedFormat indicates a config file extension Load cannot read
	ErrUnsupportedFormat = errors.New("unsupported site config format")
)

//go:embed sites.toml
var defaultSites []byte

// sitesFile is the shape shared by TOML and YAML site files.
type sitesFile struct {
	Sites []map[string]any `toml:"sites" yaml:"sites"`
}

// Defaults returns the built-in site set.
func Defaults() *Set {
	set, err := Parse(defaultSites, ".toml")
	if err != nil {
		panic(fmt.Sprintf("built-in site config: %v", err))
	}
	return set
}

// Load reads a site set from a TOML or YAML file, chosen by extension.
// An empty path yields the built-in sites.
func Load(path string) (*Set, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site config: %w", err)
	}

	set, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return set, nil
}

// Parse decodes site definitions in the format named by ext.
func Parse(data []byte, ext string) (*Set, error) {
	var file sitesFile
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	sites := make([]Site, 0, len(file.Sites))
	for i, raw := range file.Sites {
		site, err := decodeSite(raw)
		if err != nil {
			return nil, fmt.Errorf("site %d: %w", i+1, err)
		}
		sites = append(sites, site)
	}
	return NewSet(sites)
}

func decodeSite(raw map[string]any) (Site, error) {
	var (
		site Site
		err  error
	)
	for key, value := range raw {
		switch key {
		case "name":
			site.Name, err = toString(key, value)
		case "start_urls":
			site.StartURLs, err = toPatterns(key, value)
		case "allowed_domains":
			site.AllowedDomains, err = toPatterns(key, value)
		case "deny_domains":
			site.DenyDomains, err = toPatterns(key, value)
		case "allow":
			site.Allow, err = toPatterns(key, value)
		case "deny":
			site.Deny, err = toPatterns(key, value)
		case "job_dir":
			site.JobDir, err = toString(key, value)
		case "disabled":
			b, ok := value.(bool)
			if !ok {
				err = fmt.Errorf("%w: %s must be a boolean", ErrInvalidSite, key)
			}
			site.Disabled = b
		default:
			err = fmt.Errorf("%w: unknown key %q", ErrInvalidSite, key)
		}
		if err != nil {
			return Site{}, err
		}
	}
	if site.Name == "" {
		return Site{}, fmt.Errorf("%w: missing name", ErrInvalidSite)
	}
	return site, nil
}

func toString(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidSite, key)
	}
	return s, nil
}

// toPatterns accepts a single string, a list of strings, or nothing.
func toPatterns(key string, value any) (Patterns, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return Patterns{v}, nil
	case []any:
		out := make(Patterns, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must hold strings, got %T", ErrInvalidSite, key, item)
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return Patterns(v), nil
	}
	return nil, fmt.Errorf("%w: %s must be a string or a list of strings", ErrInvalidSite, key)
}
