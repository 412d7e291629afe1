// Package selection tracks which transactions the user has picked for bulk work.
package selection

import "sort"

// Mode is derived from the size of the selection.
type Mode int

// Modes.
const (
	// ModeInline allows inline editing. The selection is empty.
	ModeInline Mode = iota
	// ModeBulk suppresses inline editing in favor of bulk actions.
	ModeBulk
)

func (m Mode) String() string {
	if m == ModeBulk {
		return "bulk"
	}
	return "inline"
}

// Controller owns the selected id set. It is not safe for concurrent use;
// the engine serializes access.
type Controller struct {
	selected map[string]struct{}
}

// New creates an empty selection.
func New() *Controller {
	return &Controller{selected: make(map[string]struct{})}
}

// Toggle adds id if absent and removes it otherwise.
func (c *Controller) Toggle(id string) {
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
		return
	}
	c.selected[id] = struct{}{}
}

// SelectAll selects exactly the visible ids, or clears the selection when
// those ids are already exactly what is selected.
func (c *Controller) SelectAll(visible []string) {
	if c.equals(visible) {
		c.Clear()
		return
	}
	c.selected = make(map[string]struct{}, len(visible))
	for _, id := range visible {
		c.selected[id] = struct{}{}
	}
}

func (c *Controller) equals(visible []string) bool {
	seen := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		if _, ok := c.selected[id]; !ok {
			return false
		}
		seen[id] = struct{}{}
	}
	return len(seen) == len(c.selected)
}

// Clear empties the selection.
func (c *Controller) Clear() {
	if len(c.selected) == 0 {
		return
	}
	c.selected = make(map[string]struct{})
}

// Retain drops every selected id that is not in keep.
func (c *Controller) Retain(keep []string) {
	allowed := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		allowed[id] = struct{}{}
	}
	for id := range c.selected {
		if _, ok := allowed[id]; !ok {
			delete(c.selected, id)
		}
	}
}

// Remove drops ids from the selection.
func (c *Controller) Remove(ids ...string) {
	for _, id := range ids {
		delete(c.selected, id)
	}
}

// Has reports whether id is selected.
func (c *Controller) Has(id string) bool {
	_, ok := c.selected[id]
	return ok
}

// Len returns the number of selected ids.
func (c *Controller) Len() int { return len(c.selected) }

// Mode is ModeBulk whenever anything is selected.
func (c *Controller) Mode() Mode {
	if len(c.selected) > 0 {
		return ModeBulk
	}
	return ModeInline
}

// IDs returns the selected ids in sorted order.
func (c *Controller) IDs() []string {
	out := make([]string, 0, len(c.selected))
	for id := range c.selected {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
