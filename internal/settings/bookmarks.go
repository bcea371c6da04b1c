package settings

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lotas/tabhost/internal/types"
)

// BookmarkTree maps category names to ordered bookmark lists. Category order
// is insertion order and survives a JSON round trip.
type BookmarkTree struct {
	order   []string
	entries map[string][]types.Bookmark
}

// NewBookmarkTree returns an empty tree.
func NewBookmarkTree() *BookmarkTree {
	return &BookmarkTree{entries: make(map[string][]types.Bookmark)}
}

// Categories returns category names in insertion order.
func (t *BookmarkTree) Categories() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Has reports whether the category exists.
func (t *BookmarkTree) Has(category string) bool {
	_, ok := t.entries[category]
	return ok
}

// Get returns a copy of the bookmarks in a category.
func (t *BookmarkTree) Get(category string) []types.Bookmark {
	src := t.entries[category]
	out := make([]types.Bookmark, len(src))
	copy(out, src)
	return out
}

// Len returns the number of categories.
func (t *BookmarkTree) Len() int {
	return len(t.order)
}

// Append adds b to the end of category, creating the category if needed.
func (t *BookmarkTree) Append(category string, b types.Bookmark) {
	if _, ok := t.entries[category]; !ok {
		t.order = append(t.order, category)
	}
	t.entries[category] = append(t.entries[category], b)
}

// RemoveAt deletes the i-th bookmark of a category. The category is kept
// even when it becomes empty.
func (t *BookmarkTree) RemoveAt(category string, i int) bool {
	list, ok := t.entries[category]
	if !ok || i < 0 || i >= len(list) {
		return false
	}
	t.entries[category] = append(list[:i:i], list[i+1:]...)
	return true
}

// RemoveCategory drops a category and its bookmarks.
func (t *BookmarkTree) RemoveCategory(category string) bool {
	if _, ok := t.entries[category]; !ok {
		return false
	}
	delete(t.entries, category)
	for i, name := range t.order {
		if name == category {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// Clone returns a deep copy.
func (t *BookmarkTree) Clone() *BookmarkTree {
	c := NewBookmarkTree()
	for _, name := range t.order {
		c.order = append(c.order, name)
		c.entries[name] = append([]types.Bookmark{}, t.entries[name]...)
	}
	return c
}

// MarshalJSON writes categories as an object in insertion order.
func (t *BookmarkTree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range t.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		list := t.entries[name]
		if list == nil {
			list = []types.Bookmark{}
		}
		val, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of category -> bookmark list, keeping the
// key order of the document. Duplicate keys keep their first position.
func (t *BookmarkTree) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("bookmarks: expected object, got %v", tok)
	}

	fresh := NewBookmarkTree()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("bookmarks: expected category name, got %v", tok)
		}
		var list []types.Bookmark
		if err := dec.Decode(&list); err != nil {
			return fmt.Errorf("bookmarks: category %q: %w", name, err)
		}
		if _, seen := fresh.entries[name]; !seen {
			fresh.order = append(fresh.order, name)
		}
		if list == nil {
			list = []types.Bookmark{}
		}
		fresh.entries[name] = list
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*t = *fresh
	return nil
}
