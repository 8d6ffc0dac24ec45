package otshape

import (
	"fmt"
	"strings"
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/npillmayer/otshaping/otbuffer"
)

// DefaultPlanCacheSize is the capacity of a plan cache created with size 0.
const DefaultPlanCacheSize = 64

// PlanCache keeps compiled plans for reuse. Plans are keyed by face
// identity, segment properties, user features, variation coordinates and
// options. When the cache is full, the oldest plan is evicted.
//
// Faces are compared by interface equality, so face implementations used
// with a cache must be comparable (usually pointers).
type PlanCache struct {
	mu       sync.Mutex
	plans    *linkedhashmap.Map // planKey → *Plan, insertion ordered
	capacity int
	registry *Registry
	hits     int
	misses   int
}

// NewPlanCache creates a cache holding at most size plans, compiling with
// engines from registry (DefaultRegistry if nil).
func NewPlanCache(size int, registry *Registry) *PlanCache {
	if size <= 0 {
		size = DefaultPlanCacheSize
	}
	if registry == nil {
		registry = DefaultRegistry
	}
	return &PlanCache{
		plans:    linkedhashmap.New(),
		capacity: size,
		registry: registry,
	}
}

type planKey struct {
	face     Face
	props    otbuffer.SegmentProperties
	features string
	coords   string
	options  Options
}

func makePlanKey(face Face, props otbuffer.SegmentProperties, features []Feature, opts Options) planKey {
	key := planKey{face: face, props: props, options: opts}
	if len(features) > 0 {
		var sb strings.Builder
		for i, f := range features {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(f.String())
		}
		key.features = sb.String()
	}
	if vi, ok := face.(VariationIndexer); ok {
		key.coords = fmt.Sprint(vi.Coords())
	}
	return key
}

// Get returns the plan for the given inputs, compiling and caching it if
// necessary.
func (c *PlanCache) Get(face Face, props otbuffer.SegmentProperties, features []Feature, opts Options) (*Plan, error) {
	if face == nil {
		return nil, ErrNoFace
	}
	key := makePlanKey(face, props, features, opts)
	c.mu.Lock()
	if v, found := c.plans.Get(key); found {
		c.hits++
		c.mu.Unlock()
		return v.(*Plan), nil
	}
	c.misses++
	c.mu.Unlock()

	// compile outside the lock; the first plan stored for a key wins
	plan, err := Compile(PlanRequest{
		Face:     face,
		Props:    props,
		Features: features,
		Options:  opts,
		Registry: c.registry,
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, found := c.plans.Get(key); found {
		return v.(*Plan), nil
	}
	for c.plans.Size() >= c.capacity {
		oldest := c.plans.Keys()[0]
		c.plans.Remove(oldest)
		tracer().Debugf("plan cache evicted plan for %s", oldest.(planKey).props)
	}
	c.plans.Put(key, plan)
	return plan, nil
}

// Len returns the number of cached plans.
func (c *PlanCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plans.Size()
}

// Stats returns the number of cache hits and misses.
func (c *PlanCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Clear drops all cached plans.
func (c *PlanCache) Clear() {
	c.mu.Lock()
	c.plans.Clear()
	c.mu.Unlock()
}
