package bbref

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/vesta/internal/logging"
	"github.com/fortuna/vesta/internal/metrics"
)

// HeadshotFallback is the site's headshot location keyed by player id.
const HeadshotFallback = "https://www.basketball-reference.com/req/202106291/images/headshots/%s.jpg"

var playerPathPattern = regexp.MustCompile(`^/players/[a-z]/[a-z0-9]+\.html$`)

// PageFetcher is the subset of Client used to read pages.
type PageFetcher interface {
	Get(ctx context.Context, path string) (string, error)
	Render(ctx context.Context, path, tableID string) (string, error)
}

// LocatorCache remembers resolved player paths. Get returns "" on a miss.
type LocatorCache interface {
	GetLocator(ctx context.Context, name string) (string, error)
	SetLocator(ctx context.Context, name, locator string) error
	Forget(ctx context.Context, names ...string) error
}

// Lookup resolves player names to player page paths.
type Lookup struct {
	pages   PageFetcher
	cache   LocatorCache
	metrics *metrics.Manager
	logger  *logrus.Entry
}

// NewLookup creates a Lookup. cache and m may be nil.
func NewLookup(pages PageFetcher, cache LocatorCache, m *metrics.Manager, logger logrus.FieldLogger) *Lookup {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Lookup{
		pages:   pages,
		cache:   cache,
		metrics: m,
		logger:  logging.Component(logger, "lookup"),
	}
}

// Resolve returns the player page path for name, taking the site's best
// match. It returns "" when the search has no player result.
func (l *Lookup) Resolve(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}

	if l.cache != nil {
		locator, err := l.cache.GetLocator(ctx, name)
		if err != nil {
			l.logger.WithError(err).Warn("locator cache read failed")
		}
		l.metrics.RecordLookupCache(locator != "")
		if locator != "" {
			return locator, nil
		}
	}

	body, err := l.pages.Get(ctx, "/search/search.fcgi?search="+url.QueryEscape(name))
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("searching for %q: %w", name, err)
	}

	locator, err := parseSearch(body)
	if err != nil {
		return "", fmt.Errorf("parsing search for %q: %w", name, err)
	}
	if locator == "" {
		l.logger.WithField("player", name).Info("no player match")
		return "", nil
	}

	if l.cache != nil {
		if err := l.cache.SetLocator(ctx, name, locator); err != nil {
			l.logger.WithError(err).Warn("locator cache write failed")
		}
	}
	l.logger.WithFields(logrus.Fields{"player": name, "locator": locator}).Debug("resolved player")
	return locator, nil
}

// Invalidate drops the cached locator for name so the next Resolve searches
// again.
func (l *Lookup) Invalidate(ctx context.Context, name string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Forget(ctx, strings.TrimSpace(name)); err != nil {
		l.logger.WithError(err).Warn("locator cache delete failed")
	}
}

// Headshot returns the headshot image URL for name, or "" when the player
// cannot be found.
func (l *Lookup) Headshot(ctx context.Context, name string) (string, error) {
	locator, err := l.Resolve(ctx, name)
	if err != nil || locator == "" {
		return "", err
	}

	body, err := l.pages.Get(ctx, locator)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading player page %s: %w", locator, err)
	}

	doc, err := ParseHTML(body)
	if err != nil {
		return "", err
	}
	if src, ok := doc.Find("#meta .media-item img").First().Attr("src"); ok && strings.TrimSpace(src) != "" {
		return strings.TrimSpace(src), nil
	}
	return fmt.Sprintf(HeadshotFallback, PlayerID(locator)), nil
}

// PlayerID returns the site id of a player path ("/players/j/jamesle01.html" -> "jamesle01").
func PlayerID(locator string) string {
	return strings.TrimSuffix(path.Base(locator), ".html")
}

// parseSearch handles both outcomes of a site search: a redirect straight to
// the player page, or a results list.
func parseSearch(body string) (string, error) {
	doc, err := ParseHTML(body)
	if err != nil {
		return "", err
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if p := playerPath(href); p != "" {
			return p, nil
		}
	}

	first := strings.TrimSpace(doc.Find("#players div.search-item-url").First().Text())
	return playerPath(first), nil
}

func playerPath(ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	if playerPathPattern.MatchString(u.Path) {
		return u.Path
	}
	return ""
}
