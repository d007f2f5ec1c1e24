package filtering

import "github.com/underdogdevs/mentormatch/internal/profile"

// Pool is the set of mentor candidates for one match request.
type Pool struct {
	Items []*profile.Profile
}

func NewPool(items []*profile.Profile) *Pool {
	return &Pool{Items: items}
}

func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

func (p *Pool) IDs() []string {
	ids := make([]string, 0, p.Len())
	for _, item := range p.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// Keep returns a new pool holding the items for which keep is true, in the
// original order, together with the ids of the dropped items.
func (p *Pool) Keep(keep func(*profile.Profile) bool) (*Pool, []string) {
	kept := make([]*profile.Profile, 0, p.Len())
	var dropped []string

	for _, item := range p.Items {
		if keep(item) {
			kept = append(kept, item)
			continue
		}
		dropped = append(dropped, item.ID)
	}

	return &Pool{Items: kept}, dropped
}
