// Package catalog loads the embedded site, platform, application and voice catalogs.
// The catalogs are parsed once from YAML and shared read-only afterwards.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"jarvis/internal/data/embedded"
	"jarvis/pkg/jarvistypes"
)

// Platform is a search platform reachable through openAndSearch.
type Platform struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	BaseURL      string            `yaml:"base_url"`
	Param        string            `yaml:"param"`
	Features     []string          `yaml:"features"`
	Filters      map[string]string `yaml:"filters"`
	ValueFilters map[string]string `yaml:"value_filters"`
}

// SearchURL builds the search address for query. A filter is applied only when the platform
// lists it as a feature; value filters such as a GitHub language also need value.
func (p Platform) SearchURL(query, filter, value string) string {
	u := fmt.Sprintf("%s?%s=%s", p.BaseURL, p.Param, EncodeURIComponent(query))
	if filter == "" || !p.HasFeature(filter) {
		return u
	}
	if suffix, ok := p.Filters[filter]; ok {
		u += suffix
	}
	if prefix, ok := p.ValueFilters[filter]; ok && value != "" {
		u += prefix + value
	}
	return u
}

// HasFeature reports whether feature is listed for the platform.
func (p Platform) HasFeature(feature string) bool {
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Site is a named destination inside a Group.
type Site struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Bundle is an ordered set of sites opened together.
type Bundle struct {
	Sites   []string `yaml:"sites"`
	DelayMS int      `yaml:"delay_ms"`
	Message string   `yaml:"message"`
}

// Group is a family of sites with named bundles.
type Group struct {
	Missing string            `yaml:"missing"`
	Sites   []Site            `yaml:"sites"`
	Bundles map[string]Bundle `yaml:"bundles"`
}

// Site returns the site with the given id.
func (g Group) Site(id string) (Site, bool) {
	for _, s := range g.Sites {
		if s.ID == id {
			return s, true
		}
	}
	return Site{}, false
}

// Resolve returns the URLs of a bundle in order, with {topic} replaced by the encoded topic.
func (g Group) Resolve(bundle string, topic string) ([]Site, Bundle, error) {
	b, ok := g.Bundles[bundle]
	if !ok {
		return nil, Bundle{}, fmt.Errorf("unknown bundle: %s", bundle)
	}
	sites := make([]Site, 0, len(b.Sites))
	for _, id := range b.Sites {
		s, found := g.Site(id)
		if !found {
			return nil, Bundle{}, fmt.Errorf("bundle %s references unknown site %s", bundle, id)
		}
		s.URL = strings.ReplaceAll(s.URL, "{topic}", EncodeURIComponent(topic))
		sites = append(sites, s)
	}
	return sites, b, nil
}

// Catalog holds every embedded catalog.
type Catalog struct {
	Platforms      []Platform
	Groups         map[string]Group
	Apps           map[string]string
	Voices         []jarvistypes.VoiceProfile
	DefaultVoiceID string
}

type platformsFile struct {
	Platforms []Platform `yaml:"platforms"`
}

type sitesFile struct {
	Groups map[string]Group `yaml:"groups"`
}

type appsFile struct {
	Apps map[string]string `yaml:"apps"`
}

type voicesFile struct {
	Default  string                     `yaml:"default"`
	Profiles []jarvistypes.VoiceProfile `yaml:"profiles"`
}

// Parse builds a Catalog from raw YAML documents.
func Parse(platforms, sites, apps, voices []byte) (*Catalog, error) {
	var pf platformsFile
	if err := yaml.Unmarshal(platforms, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse platform catalog: %w", err)
	}
	var sf sitesFile
	if err := yaml.Unmarshal(sites, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse site catalog: %w", err)
	}
	var af appsFile
	if err := yaml.Unmarshal(apps, &af); err != nil {
		return nil, fmt.Errorf("failed to parse app catalog: %w", err)
	}
	var vf voicesFile
	if err := yaml.Unmarshal(voices, &vf); err != nil {
		return nil, fmt.Errorf("failed to parse voice catalog: %w", err)
	}

	c := &Catalog{
		Platforms:      pf.Platforms,
		Groups:         sf.Groups,
		Apps:           af.Apps,
		Voices:         vf.Profiles,
		DefaultVoiceID: vf.Default,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool, len(c.Platforms))
	for _, p := range c.Platforms {
		if p.ID == "" || p.BaseURL == "" || p.Param == "" {
			return fmt.Errorf("platform %q is missing id, base_url or param", p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate platform %q", p.ID)
		}
		seen[p.ID] = true
	}
	for name, g := range c.Groups {
		for bundle := range g.Bundles {
			if _, _, err := g.Resolve(bundle, ""); err != nil {
				return fmt.Errorf("group %s: %w", name, err)
			}
		}
	}
	return nil
}

// Platform looks up a search platform by id, ignoring case.
func (c *Catalog) Platform(id string) (Platform, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range c.Platforms {
		if p.ID == id {
			return p, true
		}
	}
	return Platform{}, false
}

// PlatformIDs returns every platform id in catalog order.
func (c *Catalog) PlatformIDs() []string {
	ids := make([]string, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		ids = append(ids, p.ID)
	}
	return ids
}

// Group returns a site group by name.
func (c *Catalog) Group(name string) (Group, bool) {
	g, ok := c.Groups[name]
	return g, ok
}

// App returns the URL for a basic application name.
func (c *Catalog) App(name string) (string, bool) {
	u, ok := c.Apps[strings.ToLower(strings.TrimSpace(name))]
	return u, ok
}

// AppNames returns the known application names, sorted.
func (c *Catalog) AppNames() []string {
	names := make([]string, 0, len(c.Apps))
	for n := range c.Apps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Voice returns a voice profile by id.
func (c *Catalog) Voice(id string) (jarvistypes.VoiceProfile, bool) {
	for _, v := range c.Voices {
		if v.ID == id {
			return v, true
		}
	}
	return jarvistypes.VoiceProfile{}, false
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog parsed from the embedded data files.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(embedded.PlatformsData, embedded.SitesData, embedded.AppsData, embedded.VoicesData)
	})
	return defaultCatalog, defaultErr
}

// MustDefault is Default for callers that treat a broken embedded catalog as a programming error.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}
