// Package hub holds the hub registry and the nearest-hub searchers.
package hub

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hubmatch/internal/model"
	"github.com/sells-group/hubmatch/internal/pincode"
)

var (
	// ErrEmptyHubSet is returned when a registry would contain no hubs.
	ErrEmptyHubSet = eris.New("hub: empty hub set")
	// ErrDuplicateHub is returned when two hubs share a name.
	ErrDuplicateHub = eris.New("hub: duplicate hub name")
	// ErrInvalidHub is returned for a blank name or out-of-range coordinates.
	ErrInvalidHub = eris.New("hub: invalid hub")
)

// Registry is an immutable, ordered set of hubs. Enumeration order is the
// order the hubs were given in and decides nearest-hub ties.
type Registry struct {
	hubs   []model.Hub
	byName map[string]int
	byCode map[string][]int
}

// NewRegistry validates hubs and builds a registry. Postal codes are
// normalised; blanks are dropped and repeats within one hub collapse to
// their first occurrence.
func NewRegistry(hubs []model.Hub) (*Registry, error) {
	if len(hubs) == 0 {
		return nil, ErrEmptyHubSet
	}

	r := &Registry{
		hubs:   make([]model.Hub, 0, len(hubs)),
		byName: make(map[string]int, len(hubs)),
		byCode: make(map[string][]int),
	}

	for i, h := range hubs {
		name := strings.TrimSpace(h.Name)
		if name == "" {
			return nil, eris.Wrapf(ErrInvalidHub, "hub #%d has no name", i+1)
		}
		if !h.Location.Valid() {
			return nil, eris.Wrapf(ErrInvalidHub, "hub %q has invalid location (%v, %v)", name, h.Location.Lat, h.Location.Lon)
		}
		if _, dup := r.byName[name]; dup {
			return nil, eris.Wrapf(ErrDuplicateHub, "hub %q", name)
		}

		idx := len(r.hubs)
		r.byName[name] = idx
		r.hubs = append(r.hubs, model.Hub{
			Name:     name,
			Location: h.Location,
			Pincodes: pincode.Unique(h.Pincodes),
		})
		for _, code := range r.hubs[idx].Pincodes {
			r.byCode[code] = append(r.byCode[code], idx)
		}
	}

	return r, nil
}

// Len returns the number of hubs.
func (r *Registry) Len() int { return len(r.hubs) }

// Hubs returns the hubs in enumeration order. The result is a copy.
func (r *Registry) Hubs() []model.Hub {
	out := make([]model.Hub, len(r.hubs))
	for i, h := range r.hubs {
		out[i] = cloneHub(h)
	}
	return out
}

// Get returns the hub with the given name.
func (r *Registry) Get(name string) (model.Hub, bool) {
	idx, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return model.Hub{}, false
	}
	return cloneHub(r.hubs[idx]), true
}

// Index returns the enumeration position of the named hub, or -1.
func (r *Registry) Index(name string) int {
	if idx, ok := r.byName[strings.TrimSpace(name)]; ok {
		return idx
	}
	return -1
}

// HubsFor returns the names of every hub the postal code is assigned to,
// in enumeration order.
func (r *Registry) HubsFor(code string) []string {
	idxs := r.byCode[pincode.Normalize(code)]
	names := make([]string, len(idxs))
	for i, idx := range idxs {
		names[i] = r.hubs[idx].Name
	}
	return names
}

// Pincodes returns every distinct assigned postal code, sorted.
func (r *Registry) Pincodes() []string {
	codes := make([]string, 0, len(r.byCode))
	for code := range r.byCode {
		codes = append(codes, code)
	}
	pincode.Sort(codes)
	return codes
}

// WithAssignments returns a registry with the same hubs whose assigned
// postal codes come from rows instead. Hubs without rows end up with no
// assignments. Rows naming unknown hubs are returned as ignored; rows with a
// blank hub or code are dropped silently.
func (r *Registry) WithAssignments(rows []model.Assignment) (*Registry, []model.Assignment, error) {
	lists := make([][]string, len(r.hubs))
	var ignored []model.Assignment

	for _, row := range rows {
		name := strings.TrimSpace(row.Hub)
		code := pincode.Normalize(row.Pincode)
		if name == "" || code == "" {
			continue
		}
		idx, ok := r.byName[name]
		if !ok {
			ignored = append(ignored, row)
			continue
		}
		lists[idx] = append(lists[idx], code)
	}

	hubs := make([]model.Hub, len(r.hubs))
	for i, h := range r.hubs {
		hubs[i] = model.Hub{Name: h.Name, Location: h.Location, Pincodes: lists[i]}
	}

	next, err := NewRegistry(hubs)
	if err != nil {
		return nil, nil, eris.Wrap(err, "hub: apply assignments")
	}
	return next, ignored, nil
}

func cloneHub(h model.Hub) model.Hub {
	h.Pincodes = slices.Clone(h.Pincodes)
	return h
}
