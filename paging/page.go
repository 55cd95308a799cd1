package paging

// Page describes a virtual memory page index
type Page uintptr

// PageContaining returns the page that contains the provided virtual address
func PageContaining(virtAddr uintptr) Page {
	return Page(virtAddr >> PageShift)
}

// StartAddress returns the virtual address of the first byte of the page
func (p Page) StartAddress() uintptr {
	return uintptr(p) << PageShift
}

// PageRange is an inclusive range of pages
type PageRange struct {
	Start Page
	End   Page
}

// PageRangeInclusive returns the range of pages from start to end, both included
func PageRangeInclusive(start, end Page) PageRange {
	return PageRange{Start: start, End: end}
}

// Count returns the number of pages in the range
func (r PageRange) Count() int {
	if r.End < r.Start {
		return 0
	}
	return int(r.End-r.Start) + 1
}

// Visit calls the provided callback once for each page in the range, in ascending order. It
// stops at the first error returned from the callback.
func (r PageRange) Visit(handlePage func(page Page) error) error {
	if r.End < r.Start {
		return nil
	}

	for page := r.Start; ; page++ {
		err := handlePage(page)
		if err != nil {
			return err
		}

		if page == r.End {
			return nil
		}
	}
}
