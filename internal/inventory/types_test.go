package inventory

import "testing"

func TestNormalizeExtension(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"simple", "/data/report.pdf", ".pdf"},
		{"uppercase folded", "/data/PHOTO.JPG", ".jpg"},
		{"multiple dots keep last", "/data/archive.tar.gz", ".gz"},
		{"no extension", "/data/Makefile", NoExtension},
		{"dotfile", "/home/user/.bashrc", NoExtension},
		{"trailing dot", "/data/weird.", NoExtension},
		{"extension only on basename", "/dir.d/plain", NoExtension},
		{"single letter", "/src/main.c", ".c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeExtension(tt.path); got != tt.want {
				t.Errorf("NormalizeExtension(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestSnapshotHasFileList(t *testing.T) {
	snap := &Snapshot{}
	if snap.HasFileList() {
		t.Error("empty snapshot should not report a file list")
	}

	snap.Files = []FileRecord{{Path: "/a", Size: 1}}
	if !snap.HasFileList() {
		t.Error("snapshot with one record should report a file list")
	}
}
