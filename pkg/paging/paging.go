// Package paging provides deterministic slicing of ordered collections
// into fixed-size pages for the depot's keyboard views (folder lists,
// file lists, user lists).
package paging

// DefaultPageSize is the page size used by every depot listing.
const DefaultPageSize = 10

// Page describes one page of an ordered collection.
type Page struct {
	// Start and End bound the page as a half-open slice [Start, End) of
	// the underlying collection.
	Start int
	End   int

	// Number is the clamped page index, 0-based.
	Number int

	// TotalPages is at least 1, even for an empty collection.
	TotalPages int
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 0 }

// HasNext reports whether a further page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages-1 }

// Paginate computes the page of a collection with count items.
//
// totalPages = max(1, ceil(count/pageSize)); the requested page index is
// clamped into [0, totalPages-1]. Callers keep the collection in a
// deterministic order (by name for folders and files, by id for users)
// so repeat renders of unmutated data are identical.
func Paginate(count, pageSize, requested int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	totalPages := (count + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	number := requested
	if number < 0 {
		number = 0
	}
	if number > totalPages-1 {
		number = totalPages - 1
	}

	start := number * pageSize
	if start > count {
		start = count
	}
	end := start + pageSize
	if end > count {
		end = count
	}

	return Page{Start: start, End: end, Number: number, TotalPages: totalPages}
}

// Slice returns the window of items described by a Page computed with
// Paginate over the same collection.
func Slice[T any](items []T, p Page) []T {
	return items[p.Start:p.End]
}
