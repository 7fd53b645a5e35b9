// SPDX-License-Identifier: MPL-2.0

package rootfs

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultTag is used when an image reference has no tag.
const DefaultTag = "latest"

// ErrInvalidImageRef is the sentinel error wrapped by InvalidImageRefError.
var ErrInvalidImageRef = errors.New("invalid image reference")

var imageRefPattern = regexp.MustCompile(`^([^:]+)(:([^:]+))?$`)

type (
	// ImageRef is an image name with its tag, e.g. "library/ubuntu" and "20.04".
	ImageRef struct {
		Name string
		Tag  string
	}

	// InvalidImageRefError is returned when a string is not of the form name[:tag].
	InvalidImageRefError struct {
		Value string
	}
)

func (e *InvalidImageRefError) Error() string {
	return fmt.Sprintf("invalid image reference %q (expected name[:tag])", e.Value)
}

func (e *InvalidImageRefError) Unwrap() error { return ErrInvalidImageRef }

// ParseImageRef parses name[:tag]. A missing tag defaults to DefaultTag.
func ParseImageRef(s string) (ImageRef, error) {
	m := imageRefPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ImageRef{}, &InvalidImageRefError{Value: s}
	}
	ref := ImageRef{Name: m[1], Tag: m[3]}
	if ref.Tag == "" {
		ref.Tag = DefaultTag
	}
	return ref, nil
}

// String returns name:tag.
func (r ImageRef) String() string {
	return r.Name + ":" + r.Tag
}

// InstallName is the default distribution name for the image: slashes in the
// name become dashes and the tag is appended, e.g. "library-ubuntu-20.04".
func (r ImageRef) InstallName() string {
	return strings.ReplaceAll(r.Name, "/", "-") + "-" + r.Tag
}

// ArchiveName is the default file name for a downloaded tarball of the image.
func (r ImageRef) ArchiveName() string {
	return r.InstallName() + ".tar.gz"
}
