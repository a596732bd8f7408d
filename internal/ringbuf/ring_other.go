//go:build !linux

package ringbuf

import "golang.org/x/sys/unix"

// tryMirrored: the double-memfd-map tier is Linux-specific (memfd_create
// plus MAP_FIXED over a PROT_NONE reservation). On other platforms New
// falls straight through to tryHugePage.
func tryMirrored(n uint64) (buf []byte, ok bool, err error) {
	return nil, false, nil
}

// tryHugePage implements spec.md §4.1 tier 2 on macOS-family systems: a
// plain anonymous mapping with MADV_WILLNEED advice instead of an explicit
// huge-page request (Darwin has no MAP_HUGETLB equivalent exposed through
// golang.org/x/sys/unix).
func tryHugePage(n uint64) (buf []byte, ok bool, err error) {
	size := int(n)
	data, merr := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if merr != nil {
		return nil, false, nil
	}
	_ = unix.Madvise(data, unix.MADV_WILLNEED)
	return data, true, nil
}

func freeMapped(buf []byte) error {
	return unix.Munmap(buf)
}
