package paging

import "fmt"

// MapToErrorKind describes why a call to Mapper.MapTo failed
type MapToErrorKind int

const (
	// FrameAllocationFailed means a frame was needed, either for the mapping itself or for an
	// intermediate page table, and none was available
	FrameAllocationFailed MapToErrorKind = iota
	// PageAlreadyMapped means the page already has a mapping
	PageAlreadyMapped
	// ParentEntryHugePage means the page lies inside a huge page that is already mapped
	ParentEntryHugePage
)

var mapToErrorKindMapping = map[MapToErrorKind]string{
	FrameAllocationFailed: "frame allocation failed",
	PageAlreadyMapped:     "page already mapped",
	ParentEntryHugePage:   "parent entry is a huge page",
}

func (k MapToErrorKind) String() string {
	str, ok := mapToErrorKindMapping[k]
	if !ok {
		return "unknown map error"
	}
	return str
}

// MapToError is returned when a page could not be mapped
type MapToError struct {
	Kind MapToErrorKind
	Page Page
}

func (e *MapToError) Error() string {
	return fmt.Sprintf("failed to map page at 0x%x: %s", e.Page.StartAddress(), e.Kind)
}

// Is reports whether target is a *MapToError of the same kind, regardless of page
func (e *MapToError) Is(target error) bool {
	other, ok := target.(*MapToError)
	return ok && other.Kind == e.Kind
}

var (
	// ErrFrameAllocationFailed matches any *MapToError of kind FrameAllocationFailed with errors.Is
	ErrFrameAllocationFailed error = &MapToError{Kind: FrameAllocationFailed}
	// ErrPageAlreadyMapped matches any *MapToError of kind PageAlreadyMapped with errors.Is
	ErrPageAlreadyMapped error = &MapToError{Kind: PageAlreadyMapped}
)
