package paging

import "strings"

// PageTableFlags are the permission and status bits of a page table entry
type PageTableFlags uint64

const (
	FlagPresent        PageTableFlags = 1 << 0
	FlagWritable       PageTableFlags = 1 << 1
	FlagUserAccessible PageTableFlags = 1 << 2
	FlagNoExecute      PageTableFlags = 1 << 63
)

var pageTableFlagsMapping = map[PageTableFlags]string{
	FlagPresent:        "Present",
	FlagWritable:       "Writable",
	FlagUserAccessible: "UserAccessible",
	FlagNoExecute:      "NoExecute",
}

// Has returns true if every bit in flags is set
func (f PageTableFlags) Has(flags PageTableFlags) bool {
	return f&flags == flags
}

func (f PageTableFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for bit := 0; bit < 64; bit++ {
		flag := PageTableFlags(1) << bit
		if f&flag == 0 {
			continue
		}

		name, ok := pageTableFlagsMapping[flag]
		if !ok {
			name = "Unknown"
		}
		names = append(names, name)
	}

	return strings.Join(names, "|")
}
