package tui

// Overlay ids.
const (
	overlayHelp          = "help"
	overlaySearch        = "search"
	overlayFilter        = "filter"
	overlayBulk          = "bulk"
	overlayBulkSetField  = "bulk-set-field"
	overlayConfirmDelete = "confirm-delete"
)

// Overlay tracks the single popover that is open. Opening one closes any
// other, so no popover has to watch for clicks or keys outside itself.
type Overlay struct {
	active string
}

// Open makes id the active popover.
func (o *Overlay) Open(id string) { o.active = id }

// Close closes whichever popover is open.
func (o *Overlay) Close() { o.active = "" }

// Toggle closes id if it is open and opens it otherwise.
func (o *Overlay) Toggle(id string) {
	if o.active == id {
		o.active = ""
		return
	}
	o.active = id
}

// IsOpen reports whether id is the active popover.
func (o Overlay) IsOpen(id string) bool { return id != "" && o.active == id }

// Active returns the open popover id, or "" when none is open.
func (o Overlay) Active() string { return o.active }
