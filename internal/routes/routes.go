package routes

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync/atomic"

	"gateway-server/internal/rbac"

	"gopkg.in/yaml.v3"
)

const (
	errReadFileFmt      = "failed to read routes file %s: %w"
	errParseFmt         = "failed to parse routes: %w"
	errRouteFmt         = "route %q: %w"
	errRouteIndexFmt    = "route #%d: %w"
	errDuplicateIDFmt   = "%w: %q"
	errDuplicatePathFmt = "%w: %q"
	errBadUpstreamFmt   = "%w: %q"
	errPermissionsFmt   = "permissions: %w"
)

var (
	ErrNoRoutes        = errors.New("no routes declared")
	ErrMissingID       = errors.New("route id is required")
	ErrDuplicateID     = errors.New("duplicate route id")
	ErrInvalidPath     = errors.New("route path must start with /")
	ErrDuplicatePath   = errors.New("duplicate route path")
	ErrNoUpstreams     = errors.New("route needs at least one upstream")
	ErrInvalidUpstream = errors.New("invalid upstream url")
	ErrNullPermissions = errors.New("permissions key has no value; omit it for a public route or use [] to deny all")
)

// Definition is one route as declared in the routes file. A nil
// Permissions list marks a public route; an empty list admits nobody.
type Definition struct {
	ID          string
	Path        string
	Upstreams   []string
	StripPrefix bool
	Permissions []string
}

// entry is the on-disk form of a Definition. Permissions stays a node so
// an absent key can be told apart from one left without a value.
type entry struct {
	ID          string    `yaml:"id"`
	Path        string    `yaml:"path"`
	Upstreams   []string  `yaml:"upstreams"`
	StripPrefix bool      `yaml:"strip_prefix"`
	Permissions yaml.Node `yaml:"permissions"`
}

type document struct {
	Routes []entry `yaml:"routes"`
}

func (e entry) definition() (Definition, error) {
	def := Definition{
		ID:          e.ID,
		Path:        e.Path,
		Upstreams:   e.Upstreams,
		StripPrefix: e.StripPrefix,
	}
	switch {
	case e.Permissions.Kind == 0:
		return def, nil
	case e.Permissions.Kind == yaml.ScalarNode && e.Permissions.ShortTag() == "!!null":
		return def, ErrNullPermissions
	}
	if err := e.Permissions.Decode(&def.Permissions); err != nil {
		return def, fmt.Errorf(errPermissionsFmt, err)
	}
	if def.Permissions == nil {
		def.Permissions = []string{}
	}
	return def, nil
}

// Route is a validated definition with its compiled policy. The policy may
// be swapped at runtime; everything else is fixed once mounted.
type Route struct {
	Definition
	Targets []*url.URL
	policy  atomic.Pointer[rbac.Policy]
}

// Protected reports whether the route runs through the auth filter.
func (r *Route) Protected() bool {
	return r.Definition.Permissions != nil
}

// Policy returns the permission policy currently in force.
func (r *Route) Policy() *rbac.Policy {
	return r.policy.Load()
}

func (r *Route) setPolicy(p *rbac.Policy) {
	r.policy.Store(p)
}

// Table is the set of mounted routes, in declaration order.
type Table struct {
	routes []*Route
	byID   map[string]*Route
}

func (t *Table) Routes() []*Route {
	return t.routes
}

func (t *Table) Lookup(id string) (*Route, bool) {
	r, ok := t.byID[id]
	return r, ok
}

// Load reads and compiles a routes file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(errReadFileFmt, path, err)
	}
	return Parse(data)
}

// Parse decodes and compiles a routes document. Unknown permission names
// fail here rather than on a request.
func Parse(data []byte) (*Table, error) {
	var file document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf(errParseFmt, err)
	}

	if len(file.Routes) == 0 {
		return nil, ErrNoRoutes
	}

	t := &Table{
		routes: make([]*Route, 0, len(file.Routes)),
		byID:   make(map[string]*Route, len(file.Routes)),
	}
	paths := make(map[string]bool, len(file.Routes))

	for i, e := range file.Routes {
		def, err := e.definition()
		var route *Route
		if err == nil {
			route, err = compile(def)
		}
		if err != nil {
			if def.ID == "" {
				return nil, fmt.Errorf(errRouteIndexFmt, i, err)
			}
			return nil, fmt.Errorf(errRouteFmt, def.ID, err)
		}
		if _, dup := t.byID[route.ID]; dup {
			return nil, fmt.Errorf(errDuplicateIDFmt, ErrDuplicateID, route.ID)
		}
		if paths[route.Path] {
			return nil, fmt.Errorf(errDuplicatePathFmt, ErrDuplicatePath, route.Path)
		}
		paths[route.Path] = true
		t.byID[route.ID] = route
		t.routes = append(t.routes, route)
	}

	return t, nil
}

func compile(def Definition) (*Route, error) {
	if def.ID == "" {
		return nil, ErrMissingID
	}
	if !strings.HasPrefix(def.Path, "/") {
		return nil, ErrInvalidPath
	}
	if len(def.Path) > 1 {
		def.Path = strings.TrimSuffix(def.Path, "/")
	}
	if len(def.Upstreams) == 0 {
		return nil, ErrNoUpstreams
	}

	targets := make([]*url.URL, 0, len(def.Upstreams))
	for _, raw := range def.Upstreams {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf(errBadUpstreamFmt, ErrInvalidUpstream, raw)
		}
		targets = append(targets, u)
	}

	route := &Route{Definition: def, Targets: targets}
	if def.Permissions != nil {
		policy, err := rbac.Compile(def.Permissions)
		if err != nil {
			return nil, fmt.Errorf(errPermissionsFmt, err)
		}
		route.setPolicy(policy)
	}
	return route, nil
}

// Change describes what Apply did with one route of the new table.
type Change struct {
	ID     string
	Reason string
}

const (
	reasonAdded          = "route added, restart required"
	reasonRemoved        = "route removed, restart required"
	reasonShapeChanged   = "path, upstreams or protection changed, restart required"
	reasonPolicyReplaced = "permissions updated"
)

// Apply swaps the policies of routes present in both tables. Structural
// differences cannot be applied to mounted routes and are reported as
// skipped.
func (t *Table) Apply(next *Table) (applied, skipped []Change) {
	for _, nr := range next.routes {
		cur, ok := t.byID[nr.ID]
		if !ok {
			skipped = append(skipped, Change{ID: nr.ID, Reason: reasonAdded})
			continue
		}
		if !sameShape(cur, nr) {
			skipped = append(skipped, Change{ID: nr.ID, Reason: reasonShapeChanged})
			continue
		}
		if cur.Protected() {
			cur.setPolicy(nr.Policy())
			applied = append(applied, Change{ID: nr.ID, Reason: reasonPolicyReplaced})
		}
	}
	for _, cur := range t.routes {
		if _, ok := next.byID[cur.ID]; !ok {
			skipped = append(skipped, Change{ID: cur.ID, Reason: reasonRemoved})
		}
	}
	return applied, skipped
}

func sameShape(a, b *Route) bool {
	if a.Path != b.Path || a.StripPrefix != b.StripPrefix || a.Protected() != b.Protected() {
		return false
	}
	if len(a.Upstreams) != len(b.Upstreams) {
		return false
	}
	for i := range a.Upstreams {
		if a.Upstreams[i] != b.Upstreams[i] {
			return false
		}
	}
	return true
}
