package gone

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go_gone/internal/cache"
	"go_gone/internal/model"

	"github.com/sirupsen/logrus"
)

const (
	patternsKey = "patterns"
	verdictGone = "1"
	verdictLive = "0"
)

// RequestContext carries the parts of an inbound request the engine looks at
type RequestContext struct {
	Method string
	URI    string
	Header http.Header
}

// RequestContextFrom builds a RequestContext from an HTTP request
func RequestContextFrom(r *http.Request) RequestContext {
	uri := r.RequestURI
	if uri == "" && r.URL != nil {
		uri = r.URL.RequestURI()
	}
	return RequestContext{Method: r.Method, URI: uri, Header: r.Header}
}

// cachedPattern is the wire form of the materialized pattern list
type cachedPattern struct {
	Pattern string `json:"p"`
	IsRegex bool   `json:"r"`
}

type regexpSet struct {
	gen int64
	m   sync.Map // pattern -> *regexp.Regexp, nil when the pattern does not compile
}

// Engine decides whether a request path should be answered with 410.
type Engine struct {
	repo     Repository
	cache    cache.Namespace
	ttl      time.Duration
	logger   *logrus.Entry
	compiled atomic.Pointer[regexpSet]
}

// NewEngine creates a match engine
func NewEngine(cfg *Config) *Engine {
	return &Engine{
		repo:   cfg.Repo,
		cache:  cfg.Cache,
		ttl:    cfg.ttl(),
		logger: cfg.logger("match-engine"),
	}
}

// IsGone reports whether the request path matches a stored pattern.
// It never fails: cache or storage errors resolve to false.
func (e *Engine) IsGone(ctx context.Context, req RequestContext) bool {
	path, ok := NormalizePath(req.URI)
	if !ok {
		return false
	}

	key := verdictKey(path)
	entry, err := e.cache.Lookup(ctx, key)
	if err != nil {
		e.logger.WithError(err).WithField("path", path).Warn("Verdict cache unavailable, not gone")
		return false
	}
	if entry.Found {
		return entry.Value == verdictGone
	}

	patterns, err := e.patterns(ctx, entry.Generation)
	if err != nil {
		e.logger.WithError(err).WithField("path", path).Warn("Pattern list unavailable, not gone")
		return false
	}

	gone := e.match(entry.Generation, path, patterns)

	verdict := verdictLive
	if gone {
		verdict = verdictGone
	}
	if err := e.cache.Set(ctx, entry.Generation, key, verdict, e.ttl); err != nil {
		e.logger.WithError(err).WithField("path", path).Warn("Failed to cache verdict")
	}
	return gone
}

// patterns returns the materialized list for gen, loading it from the
// repository on a miss
func (e *Engine) patterns(ctx context.Context, gen int64) ([]cachedPattern, error) {
	raw, ok, err := e.cache.Get(ctx, gen, patternsKey)
	if err != nil {
		return nil, err
	}
	if ok {
		var list []cachedPattern
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return list, nil
		}
		e.logger.Warn("Discarding undecodable cached pattern list")
	}

	rows, err := e.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	list := toCached(rows)

	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Set(ctx, gen, patternsKey, string(b), e.ttl); err != nil {
		e.logger.WithError(err).Warn("Failed to cache pattern list")
	}
	return list, nil
}

// match evaluates patterns in list order and stops at the first hit.
// Regex patterns are unanchored: "products" matches "/products/123".
func (e *Engine) match(gen int64, path string, patterns []cachedPattern) bool {
	set := e.regexps(gen)
	for _, p := range patterns {
		if !p.IsRegex {
			if p.Pattern == path {
				return true
			}
			continue
		}
		re := set.compile(p.Pattern, e.logger)
		if re != nil && re.MatchString(path) {
			return true
		}
	}
	return false
}

func (e *Engine) regexps(gen int64) *regexpSet {
	cur := e.compiled.Load()
	if cur != nil && cur.gen == gen {
		return cur
	}
	next := &regexpSet{gen: gen}
	if e.compiled.CompareAndSwap(cur, next) {
		return next
	}
	return e.compiled.Load()
}

func (s *regexpSet) compile(pattern string, logger *logrus.Entry) *regexp.Regexp {
	if v, ok := s.m.Load(pattern); ok {
		re, _ := v.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		logger.WithError(err).WithField("pattern", pattern).Debug("Skipping invalid regex pattern")
	}
	actual, _ := s.m.LoadOrStore(pattern, re)
	out, _ := actual.(*regexp.Regexp)
	return out
}

// NormalizePath extracts the path component of a request URI.
// ok is false when the URI does not parse or has no path.
func NormalizePath(uri string) (string, bool) {
	if strings.TrimSpace(uri) == "" {
		return "", false
	}
	u, err := url.Parse(uri)
	if err != nil || u.Path == "" {
		return "", false
	}
	return u.Path, true
}

func verdictKey(path string) string {
	sum := sha1.Sum([]byte(path))
	return "path:" + hex.EncodeToString(sum[:])
}

func settingKey(name string) string {
	return "setting:" + name
}

func toCached(rows []model.GonePattern) []cachedPattern {
	out := make([]cachedPattern, len(rows))
	for i, r := range rows {
		out[i] = cachedPattern{Pattern: r.URLPattern, IsRegex: r.IsRegex}
	}
	return out
}
