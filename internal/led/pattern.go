package led

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MinInterval replaces zero-length intervals so playback never refires immediately.
const MinInterval = time.Millisecond

// Pattern is an immutable blink sequence. Durations are in milliseconds and
// alternate ON, OFF, ON, ... Drivers only read through a *Pattern, never copy
// or modify it.
type Pattern struct {
	Name      string
	Durations []uint16
}

// Len returns the number of intervals.
func (p *Pattern) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Durations)
}

// Valid reports whether the pattern can be played.
func (p *Pattern) Valid() bool {
	return p.Len() > 0
}

// Interval returns the duration of interval i with zero coerced to MinInterval.
func (p *Pattern) Interval(i int) time.Duration {
	d := time.Duration(p.Durations[i]) * time.Millisecond
	if d == 0 {
		return MinInterval
	}
	return d
}

// Period returns the length of one full playback cycle.
func (p *Pattern) Period() time.Duration {
	var total time.Duration
	for i := range p.Len() {
		total += p.Interval(i)
	}
	return total
}

func (p *Pattern) String() string {
	if p == nil {
		return "<none>"
	}
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("custom%v", p.Durations)
}

// Built-in patterns.
var (
	Slow       = Pattern{Name: "SLOW", Durations: []uint16{500, 500}}
	Fast       = Pattern{Name: "FAST", Durations: []uint16{100, 100}}
	Double     = Pattern{Name: "DOUBLE_BLINK", Durations: []uint16{250, 250, 250, 1000}}
	Heartbeat  = Pattern{Name: "HEARTBEAT", Durations: []uint16{100, 1000}}
	Connecting = Pattern{Name: "CONNECTING", Durations: []uint16{300, 300}}
	Failure    = Pattern{Name: "ERROR", Durations: []uint16{600, 600}}
	SOS        = Pattern{Name: "SOS", Durations: []uint16{
		150, 150, 150, 150, 150, 150, // S
		450, 150, 450, 150, 450, 150, // O
		150, 150, 150, 150, 150, 1500, // S
	}}
	Triple = Pattern{Name: "TRIPLE", Durations: []uint16{250, 250, 250, 250, 250, 1000}}

	// HeartbeatInverted is HEARTBEAT with the pause first. Both orders exist in
	// deployed firmware, so both are offered and either can be overridden.
	HeartbeatInverted = Pattern{Name: "HEARTBEAT_INVERTED", Durations: []uint16{1000, 100}}
)

// Builtins returns the built-in patterns in catalog order.
func Builtins() []*Pattern {
	return []*Pattern{&Slow, &Fast, &Double, &Heartbeat, &HeartbeatInverted, &Connecting, &Failure, &SOS, &Triple}
}

// Catalog is an immutable set of named patterns. Lookups are case-insensitive.
type Catalog struct {
	patterns map[string]*Pattern
}

// NewCatalog builds a catalog of the built-ins overlaid with custom patterns.
// A custom pattern with a built-in name replaces the built-in.
func NewCatalog(custom ...Pattern) (*Catalog, error) {
	c := &Catalog{patterns: make(map[string]*Pattern, len(custom)+9)}
	for _, p := range Builtins() {
		c.patterns[normalizeName(p.Name)] = p
	}

	for i := range custom {
		p := custom[i]
		if strings.TrimSpace(p.Name) == "" {
			return nil, newError(ErrCodeInvalidPattern, "custom pattern has no name", nil)
		}
		if !p.Valid() {
			return nil, newError(ErrCodeInvalidPattern, fmt.Sprintf("pattern %q has no intervals", p.Name), nil)
		}
		durations := make([]uint16, len(p.Durations))
		copy(durations, p.Durations)
		c.patterns[normalizeName(p.Name)] = &Pattern{Name: strings.ToUpper(p.Name), Durations: durations}
	}

	return c, nil
}

// DefaultCatalog returns a catalog holding only the built-ins.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog()
	return c
}

// Lookup finds a pattern by name.
func (c *Catalog) Lookup(name string) (*Pattern, error) {
	p, ok := c.patterns[normalizeName(name)]
	if !ok {
		return nil, newError(ErrCodeUnknownPattern, fmt.Sprintf("pattern %q not found", name), nil)
	}
	return p, nil
}

// Names returns all pattern names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.patterns))
	for _, p := range c.patterns {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// All returns every pattern sorted by name.
func (c *Catalog) All() []*Pattern {
	all := make([]*Pattern, 0, len(c.patterns))
	for _, p := range c.patterns {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
