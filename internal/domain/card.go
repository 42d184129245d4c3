package domain

import "time"

// Bounds of a card's revision weight. The upper bound is the range of the
// SMALLINT column the weight has always been stored in.
const (
	MinWeight = 1
	MaxWeight = 32767
)

// Bounds of a deck's revision length.
const (
	MinRevisionLength = 5
	MaxRevisionLength = 25
)

// User owns decks.
type User struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
}

// Session binds a cookie token to a user.
type Session struct {
	ID      int64     `db:"id"`
	UserID  int64     `db:"user_id"`
	Token   string    `db:"token"`
	Created time.Time `db:"created"`
}

// Deck is a user-owned collection of cards with its revision settings.
type Deck struct {
	ID             int64    `json:"id" db:"id"`
	UserID         int64    `json:"user_id" db:"user_id"`
	Name           string   `json:"name" db:"name"`
	RevisionLength int      `json:"revision_length" db:"revision_length"`
	FlipMode       FlipMode `json:"flip_mode" db:"flip_mode"`
}

// Card is a front/back pair. RevisionWeight is only ever changed by feedback.
type Card struct {
	ID             int64  `json:"id" db:"id"`
	DeckID         int64  `json:"deck_id" db:"deck_id"`
	Front          string `json:"front" db:"front"`
	Back           string `json:"back" db:"back"`
	RevisionWeight int    `json:"revision_weight" db:"revision_weight"`

	// Set for cards imported from a source.
	Hash     string `json:"-" db:"hash"`
	SourceID *int64 `json:"-" db:"source_id"`
}

// RevisionCard is the per-session view of a card: the side shown first and
// the side revealed on flip. It is never stored.
type RevisionCard struct {
	ID     int64  `json:"id"`
	DeckID int64  `json:"deck_id"`
	First  string `json:"first"`
	Second string `json:"second"`
}

// CardPage is one page of a deck's card listing.
type CardPage struct {
	Records    []Card `json:"records"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	TotalPages int    `json:"total_pages"`
}

// Source is a local directory or git repository cards are imported from.
type Source struct {
	ID          int64      `json:"id" db:"id"`
	DeckID      int64      `json:"deck_id" db:"deck_id"`
	Path        string     `json:"path" db:"path"`
	Type        string     `json:"type" db:"type"`
	LastScanned *time.Time `json:"last_scanned" db:"last_scanned"`
}

// Source types.
const (
	SourceLocal = "local"
	SourceGit   = "git"
)
