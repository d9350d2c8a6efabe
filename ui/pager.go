package ui

import "plotterctl/model"

// pager holds the pagination cursor and the enabled state of the four
// navigation controls. The zero value has every control disabled, which is
// what the console shows before the first page arrives.
type pager struct {
	page  int
	pages int

	firstEnabled bool
	prevEnabled  bool
	nextEnabled  bool
	lastEnabled  bool
}

// target returns the page index to request. Relative offsets move from the
// current page; absolute offsets are 1-based. The result is never negative.
func (p pager) target(offset int, absolute bool) int {
	var page int
	if absolute {
		page = offset - 1
	} else {
		page = p.page + offset
	}
	return max(page, 0)
}

// apply takes the server's view of the cursor. pages is not corrected even
// when it disagrees with page, so a result reporting zero pages leaves
// next/last enabled.
func (p *pager) apply(res model.PageResult) {
	p.page = res.Page
	p.pages = res.Pages

	atStart := res.Page == 0
	p.firstEnabled = !atStart
	p.prevEnabled = !atStart

	atEnd := res.Page == res.Pages-1
	p.nextEnabled = !atEnd
	p.lastEnabled = !atEnd
}
