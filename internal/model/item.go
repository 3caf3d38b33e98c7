package model

// Item is a single entry on the shopping list.
// Items are immutable once stored; a rename is a delete followed by an insert.
type Item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
