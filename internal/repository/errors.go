package repository

import "errors"

// ErrStateConflict indicates a compare-and-swap update found the record outside the expected state.
var ErrStateConflict = errors.New("record is no longer in the expected state")

// maxPage bounds page numbers so the offset stays far from integer overflow.
const maxPage = 100000

func paginate(page, pageSize int) (offset, limit int) {
	if pageSize <= 0 {
		return 0, -1
	}
	page = min(max(page, 1), maxPage)
	pageSize = min(pageSize, maxPage)
	return (page - 1) * pageSize, pageSize
}
