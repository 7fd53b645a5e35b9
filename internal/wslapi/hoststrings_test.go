// SPDX-License-Identifier: MPL-2.0

package wslapi

import (
	"slices"
	"testing"
	"unsafe"
)

func cBytes(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}

func TestTakeHostStrings(t *testing.T) {
	t.Parallel()

	want := []string{"HOSTTYPE=x86_64", "LANG=en_US.UTF-8", "PATH=/usr/local/sbin:/usr/bin", "TERM=xterm-256color"}
	array := make([]*byte, len(want))
	for i, s := range want {
		array[i] = cBytes(s)
	}

	var freed []unsafe.Pointer
	got := takeHostStrings(&array[0], uint32(len(array)), func(p unsafe.Pointer) {
		freed = append(freed, p)
	})

	if !slices.Equal(got, want) {
		t.Fatalf("takeHostStrings() = %q, want %q", got, want)
	}
	if len(freed) != len(want)+1 {
		t.Fatalf("freed %d pointers, want %d (each string plus the array)", len(freed), len(want)+1)
	}
	for i, p := range array {
		if freed[i] != unsafe.Pointer(p) {
			t.Errorf("free #%d = %p, want string %d at %p", i, freed[i], i, p)
		}
	}
	if freed[len(freed)-1] != unsafe.Pointer(&array[0]) {
		t.Errorf("array was not freed last")
	}
}

func TestTakeHostStrings_Empty(t *testing.T) {
	t.Parallel()

	calls := 0
	if got := takeHostStrings(nil, 0, func(unsafe.Pointer) { calls++ }); got != nil {
		t.Errorf("takeHostStrings(nil) = %q, want nil", got)
	}
	if calls != 0 {
		t.Errorf("free called %d times for a nil array", calls)
	}
}

func TestTakeHostStrings_CopiesIntoGoMemory(t *testing.T) {
	t.Parallel()

	buf := []byte("A=1\x00")
	array := []*byte{&buf[0]}
	got := takeHostStrings(&array[0], 1, func(unsafe.Pointer) {})
	buf[0] = 'Z'
	if got[0] != "A=1" {
		t.Errorf("result aliases host memory: %q", got[0])
	}
}
