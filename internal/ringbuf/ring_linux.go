//go:build linux

package ringbuf

import (
	"fmt"
	"unsafe"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// tryMirrored implements spec.md §4.1 tier 1: reserve 2N of anonymous
// PROT_NONE address space, back it with a size-N memfd, then map that
// memfd twice (once over each half) so buf[i] == buf[N+i] for every
// i < N. Grounded on the double-map idiom in socketcanring's PACKET_RX_RING
// setup and ktls_linux.go's raw-syscall fallbacks when golang.org/x/sys/unix
// has no higher-level wrapper (here: mmap with a caller-supplied fixed
// address, which unix.Mmap does not expose).
func tryMirrored(n uint64) (buf []byte, ok bool, err error) {
	if n == 0 || n > 1<<40 {
		return nil, false, fmt.Errorf("ringbuf: capacity too large to mirror")
	}
	size := int(n)

	// Instance-unique name for the memfd, per spec.md §4.1's "process- and
	// instance-unique suffix" requirement. It is only passed to MemfdCreate
	// (where it labels the fd) and is not stored anywhere.
	name := fmt.Sprintf("wsll-ring-%s", uuid.NewString())

	fd, ferr := unix.MemfdCreate(name, 0)
	if ferr != nil {
		// memfd_create disallowed by seccomp or too old a kernel: this
		// tier simply isn't available here, fall through to the next one.
		return nil, false, nil
	}
	defer unix.Close(fd)

	if terr := unix.Ftruncate(fd, int64(size)); terr != nil {
		return nil, false, nil
	}

	reserve, rerr := unix.Mmap(-1, 0, 2*size, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if rerr != nil {
		return nil, false, nil
	}
	base := uintptr(unsafe.Pointer(&reserve[0]))

	if _, merr := mmapAt(base, fd, 0, size); merr != nil {
		_ = unix.Munmap(reserve)
		return nil, false, nil
	}
	if _, merr := mmapAt(base+uintptr(size), fd, 0, size); merr != nil {
		_ = unix.Munmap(reserve)
		return nil, false, nil
	}

	return reserve, true, nil
}

// mmapAt issues mmap(2) directly via the raw syscall with MAP_FIXED so the
// new mapping replaces the PROT_NONE placeholder at exactly addr. Neither
// unix.Mmap nor any other golang.org/x/sys/unix helper exposes a
// caller-chosen address, so this goes straight to SYS_MMAP the same way
// ktls_linux.go drops to unix.Syscall for recvmsg/sendmsg when no typed
// wrapper exists.
func mmapAt(addr uintptr, fd int, offset int64, length int) (uintptr, error) {
	ret, _, errno := unix.Syscall6(
		unix.SYS_MMAP,
		addr,
		uintptr(length),
		uintptr(unix.PROT_READ|unix.PROT_WRITE),
		uintptr(unix.MAP_SHARED|unix.MAP_FIXED),
		uintptr(fd),
		uintptr(offset),
	)
	if errno != 0 {
		return 0, errno
	}
	return ret, nil
}

// tryHugePage implements spec.md §4.1 tier 2 on Linux: a huge-page-backed
// (or, if huge pages are unavailable, plain) anonymous mapping at
// cache-line alignment.
func tryHugePage(n uint64) (buf []byte, ok bool, err error) {
	size := int(n)
	data, merr := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE|unix.MAP_HUGETLB)
	if merr != nil {
		// Huge pages unavailable or pool exhausted: degrade quietly to a
		// plain anonymous mapping, same tier, no huge-page backing.
		data, merr = unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
		if merr != nil {
			return nil, false, nil
		}
	}
	return data, true, nil
}

func freeMapped(buf []byte) error {
	return unix.Munmap(buf)
}
