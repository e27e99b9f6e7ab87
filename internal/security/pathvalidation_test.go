package security

import (
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"direct child", filepath.Join(root, "parsed.csv"), false},
		{"nested child", filepath.Join(root, "uid", "EA", "20260301.csv"), false},
		{"dot-dot escape", filepath.Join(root, "..", "outside.csv"), true},
		{"deep dot-dot escape", filepath.Join(root, "uid", "..", "..", "outside.csv"), true},
		{"root itself", root, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, root)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantErr = %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizePathComponent(t *testing.T) {
	for _, ok := range []string{"EA", "ZZ", "B%", "user-123", "20260301"} {
		if err := SanitizePathComponent(ok); err != nil {
			t.Errorf("SanitizePathComponent(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"", ".", "..", "a/b", `a\b`} {
		if err := SanitizePathComponent(bad); err == nil {
			t.Errorf("SanitizePathComponent(%q) = nil, want error", bad)
		}
	}
}
