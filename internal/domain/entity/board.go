package entity

// Board is a Monday.com board as returned by the v2 API.
type Board struct {
	ID          int64
	Name        string
	Description string
	ItemCount   int
}

// Column describes one column of a board.
type Column struct {
	ID    string
	Title string
	Type  string
}

// Row holds the display text of one board item keyed by column title.
// The item name is stored under the "item name" key, matching the way
// exports from the boards are shaped.
type Row map[string]string

// RowItemName is the Row key carrying the item's own name.
const RowItemName = "item name"
