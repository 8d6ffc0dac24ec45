package otshape

import (
	"sync"

	"github.com/npillmayer/otshaping/otbuffer"
)

// Shaper bundles an engine registry and a plan cache. It is safe for
// concurrent use, provided every goroutine shapes its own buffer.
type Shaper struct {
	options  Options
	unicode  otbuffer.UnicodeFuncs
	registry *Registry
	cache    *PlanCache
}

// ShaperOption configures a Shaper.
type ShaperOption func(*Shaper)

// WithRegistry selects the engines plans are compiled with.
func WithRegistry(reg *Registry) ShaperOption {
	return func(s *Shaper) { s.registry = reg }
}

// WithCacheSize bounds the number of cached plans.
func WithCacheSize(size int) ShaperOption {
	return func(s *Shaper) { s.cache = NewPlanCache(size, s.registry) }
}

// WithOptions sets the plan options.
func WithOptions(opts Options) ShaperOption {
	return func(s *Shaper) { s.options = opts }
}

// WithUnicode sets the Unicode property provider.
func WithUnicode(uf otbuffer.UnicodeFuncs) ShaperOption {
	return func(s *Shaper) { s.unicode = uf }
}

// NewShaper creates a shaper. Without options it uses DefaultRegistry,
// default plan options and a plan cache of DefaultPlanCacheSize.
func NewShaper(opts ...ShaperOption) *Shaper {
	s := &Shaper{
		unicode:  otbuffer.DefaultUnicode,
		registry: DefaultRegistry,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = DefaultRegistry
	}
	if s.cache == nil || s.cache.registry != s.registry {
		size := DefaultPlanCacheSize
		if s.cache != nil {
			size = s.cache.capacity
		}
		s.cache = NewPlanCache(size, s.registry)
	}
	return s
}

// Plan returns the cached plan for the inputs, compiling it if necessary.
func (s *Shaper) Plan(face Face, props otbuffer.SegmentProperties, features []Feature) (*Plan, error) {
	return s.cache.Get(face, props, features, s.options)
}

// Shape shapes buf with face. Unset segment properties are guessed from the
// buffer's content first.
func (s *Shaper) Shape(face Face, buf *otbuffer.Buffer, features []Feature) error {
	if face == nil {
		return ErrNoFace
	}
	if buf.Len() == 0 {
		return nil
	}
	if !buf.Props().Direction.IsValid() {
		buf.GuessSegmentProperties()
	}
	plan, err := s.Plan(face, buf.Props(), features)
	if err != nil {
		return err
	}
	return plan.ShapeWith(face, buf, s.unicode)
}

// CacheStats returns hits and misses of the plan cache.
func (s *Shaper) CacheStats() (hits, misses int) {
	return s.cache.Stats()
}

var (
	defaultShaper     *Shaper
	defaultShaperOnce sync.Once
)

// Shape shapes buf with face using a package level shaper on
// DefaultRegistry.
func Shape(face Face, buf *otbuffer.Buffer, features []Feature) error {
	defaultShaperOnce.Do(func() {
		defaultShaper = NewShaper()
	})
	return defaultShaper.Shape(face, buf, features)
}
