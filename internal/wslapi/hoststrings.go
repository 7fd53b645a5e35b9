// SPDX-License-Identifier: MPL-2.0

package wslapi

import "unsafe"

// takeHostStrings copies count NUL-terminated strings from a host-allocated
// array of char pointers into Go strings, then passes each string and finally
// the array itself to free. A nil array yields nil without calling free.
func takeHostStrings(array **byte, count uint32, free func(unsafe.Pointer)) []string {
	if array == nil {
		return nil
	}
	ptrs := unsafe.Slice(array, count)
	out := make([]string, 0, count)
	for _, p := range ptrs {
		out = append(out, cString(p))
		if p != nil {
			free(unsafe.Pointer(p))
		}
	}
	free(unsafe.Pointer(array))
	return out
}

func cString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}
