package artifact

import (
	"os"
	"path/filepath"
	"strings"
)

// Sink is where finished artifacts (and their pre-build placeholders) live,
// keyed by demo name.
type Sink interface {
	WritePlaceholder(name string) error
	RemovePlaceholder(name string) error
	Write(name string, data []byte) error
	Purge(keep []string) error
}

// DirSink keeps one <name>.html slot per demo under a single directory.
// Files without the artifact extension are never touched.
type DirSink struct {
	Dir string
}

func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DirSink{Dir: dir}, nil
}

func (s *DirSink) slot(name string) string {
	return filepath.Join(s.Dir, name+Ext)
}

// WritePlaceholder creates a stand-in at the slot so build steps that
// enumerate expected outputs before they exist do not fail. The content is
// irrelevant, only the existence matters.
func (s *DirSink) WritePlaceholder(name string) error {
	return os.WriteFile(s.slot(name), []byte("placeholder\n"), 0644)
}

func (s *DirSink) RemovePlaceholder(name string) error {
	err := os.Remove(s.slot(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Write replaces the slot content atomically: the artifact is staged next to
// the slot and renamed into place, so a reader sees either the old content or
// the full new artifact, never a partial write.
func (s *DirSink) Write(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.Dir, name+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.slot(name))
}

// Purge removes artifacts whose demo no longer exists, so renamed or deleted
// demos do not leave stale images behind.
func (s *DirSink) Purge(keep []string) error {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return err
	}

	current := make(map[string]bool, len(keep))
	for _, n := range keep {
		current[n] = true
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		if current[strings.TrimSuffix(e.Name(), Ext)] {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
