package settings

import (
	"errors"
	"path/filepath"
	"testing"
)

type sampleScript struct{}

func TestIdentity_Validate(t *testing.T) {
	tests := []struct {
		id      Identity
		wantErr bool
	}{
		{"com.acme.fisher.Script", false},
		{"fisher", false},
		{"", true},
		{"..", true},
		{"a/b", true},
		{`a\b`, true},
		{"a..b", true},
	}

	for _, tt := range tests {
		err := tt.id.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Identity(%q).Validate() error = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidIdentity) {
			t.Errorf("Identity(%q).Validate() error = %v, want ErrInvalidIdentity", tt.id, err)
		}
	}
}

func TestIdentityFor(t *testing.T) {
	want := Identity("github.com.bft-labs.scriptd.pkg.settings.sampleScript")

	if got := IdentityFor(sampleScript{}); got != want {
		t.Errorf("IdentityFor(value) = %q, want %q", got, want)
	}
	if got := IdentityFor(&sampleScript{}); got != want {
		t.Errorf("IdentityFor(pointer) = %q, want %q", got, want)
	}
	if got := IdentityFor(nil); got != "" {
		t.Errorf("IdentityFor(nil) = %q, want empty", got)
	}
	if err := want.Validate(); err != nil {
		t.Errorf("derived identity should be valid: %v", err)
	}
}

func TestPathLayout(t *testing.T) {
	got := Path("/tmp/scriptd", "com.acme.Script")
	want := filepath.Join("/tmp/scriptd", "com.acme.Script", "settings.xml")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}
