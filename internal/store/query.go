package store

import "strconv"

const defaultPerPage = 20

// pageBounds clamps pagination params to sane values and converts them to
// LIMIT/OFFSET.
func pageBounds(page, perPage int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = defaultPerPage
	}
	return perPage, (page - 1) * perPage
}

func itoa(n int) string { return strconv.Itoa(n) }
