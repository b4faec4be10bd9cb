package blob

import (
	"fmt"
	"path"
	"strings"
)

// ResolveName returns a filename that does not collide with any blob already
// present in dir. If desired is free it is returned unchanged; otherwise a
// numeric suffix is inserted before the extension (report.pdf, report_1.pdf,
// report_2.pdf, ...) until a free name is found.
//
// This is a pure query over the current store state. The caller is expected
// to write the blob immediately afterwards; repeated calls without an
// intervening write return the same name.
func ResolveName(store Store, dir, desired string) string {
	if !store.Exists(path.Join(dir, desired)) {
		return desired
	}

	ext := path.Ext(desired)
	base := strings.TrimSuffix(desired, ext)

	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", base, counter, ext)
		if !store.Exists(path.Join(dir, candidate)) {
			return candidate
		}
	}
}
