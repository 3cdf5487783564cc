package repository

import "time"

// Category represents a waste category row.
type Category struct {
	ID        string
	Name      string
	Active    bool
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MappingCacheEntry is a persisted resolution of a normalized legacy category
// name onto a category. At most one live entry exists per normalized name.
type MappingCacheEntry struct {
	SourceNameNormalized string
	CategoryID           string
	Provider             string
	Confidence           float64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PosteReception is a reception work session during which tickets are created.
type PosteReception struct {
	ID       string
	OpenedBy string
	Status   string
	OpenedAt time.Time
	ClosedAt *time.Time
}

// Poste statuses.
const (
	PosteOuvert = "ouvert"
	PosteFerme  = "ferme"
)

// TicketDepot is a batch of deposited items recorded under one poste.
type TicketDepot struct {
	ID        string
	PosteID   string
	CreatedBy string
	CreatedAt time.Time
}

// LigneDepot is one category+weight+destination entry under a ticket.
type LigneDepot struct {
	ID          string
	TicketID    string
	CategoryID  string
	PoidsKg     float64
	Destination *string
	Notes       *string
	DepositedOn time.Time
	CreatedAt   time.Time
}
