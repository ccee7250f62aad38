// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package fsstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bottlerocket-os/settings-engine/version"
)

// CurrentLink is the top of the version symlink chain rooted directly under
// base, per spec §3: current -> vM -> vM.m -> vM.m.p -> <concrete directory>.
// The other three link names come from Version.MajorName, MajorMinorName and
// DirName.
const (
	CurrentLink = "current"
)

// ResolveCurrent follows base/current -> vM -> vM.m -> vM.m.p and returns
// the final concrete directory name (e.g. "v1.2.3_ab12") together with its
// parsed version.
func ResolveCurrent(base string) (dir string, v version.Version, err error) {
	p := filepath.Join(base, CurrentLink)
	for range [4]struct{}{} {
		target, err := os.Readlink(p)
		if err != nil {
			return "", version.Version{}, fmt.Errorf("fsstore: resolving version chain at %s: %w", p, err)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(p), target)
		}
		fi, err := os.Lstat(target)
		if err != nil {
			return "", version.Version{}, fmt.Errorf("fsstore: resolving version chain: %w", err)
		}
		if fi.Mode()&os.ModeSymlink == 0 {
			// target is the concrete directory: we've reached the end.
			name := filepath.Base(target)
			ver, _, err := version.SplitDirName(name)
			if err != nil {
				return "", version.Version{}, fmt.Errorf("fsstore: concrete directory %q: %w", name, err)
			}
			return target, ver, nil
		}
		p = target
	}
	return "", version.Version{}, fmt.Errorf("fsstore: version chain at %s too deep (possible cycle)", filepath.Join(base, CurrentLink))
}

// NewConcreteDirName returns a fresh "v<version>_<tag>" name that must not
// yet exist under base.
func NewConcreteDirName(v version.Version) string {
	return fmt.Sprintf("%s_%s", v.DirName(), uuid.NewString()[:16])
}

// CreateSkeleton creates a new concrete versioned directory under base
// (live/, metadata/, pending/) and points all four symlinks at it. It is
// used both by the populator (first boot) and by the migration engine
// (when the migration list for a version pair is empty).
func CreateSkeleton(base string, v version.Version) (dir string, err error) {
	if err := os.MkdirAll(base, 0o750); err != nil {
		return "", err
	}
	name := NewConcreteDirName(v)
	concrete := filepath.Join(base, name)
	for _, sub := range []string{liveDir, metadataDir, pendingDir} {
		if err := os.MkdirAll(filepath.Join(concrete, sub), 0o750); err != nil {
			return "", err
		}
	}
	if err := FlipSymlinks(base, v, name); err != nil {
		return "", err
	}
	return concrete, nil
}

// FlipSymlinks atomically repoints the four-link chain at the concrete
// directory named target, in patch -> minor -> major -> current order, per
// spec §4.J step 8. Each individual flip is itself atomic
// (symlink-to-temp-name then rename).
func FlipSymlinks(base string, v version.Version, target string) error {
	// vM.m.p -> <target> is the first flip; the rest point at each other.
	chain := []struct {
		link   string
		target string
	}{
		{v.DirName(), target},
		{v.MajorMinorName(), v.DirName()},
		{v.MajorName(), v.MajorMinorName()},
		{CurrentLink, v.MajorName()},
	}
	for _, step := range chain {
		if err := atomicSymlink(base, step.link, step.target); err != nil {
			return fmt.Errorf("fsstore: flipping %s -> %s: %w", step.link, step.target, err)
		}
	}
	return fsyncDir(base)
}

func atomicSymlink(base, link, target string) error {
	tmp := filepath.Join(base, ".tmp-"+link+"-"+uuid.NewString()[:8])
	if err := os.Symlink(target, tmp); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(base, link))
}

// fsyncDir fsyncs base's directory entry so the new symlinks survive power
// loss. Failure here is logged by the caller and is non-fatal: spec §4.J
// step 9 says we cannot roll back safely past the flip anyway.
func fsyncDir(base string) error {
	f, err := os.Open(base)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
