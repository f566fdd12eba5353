package version

import "testing"

func TestInfoDefaults(t *testing.T) {
	bi := Info("vqa-merge")
	if bi.Service != "vqa-merge" || bi.Version != "dev" || bi.Commit != "none" || bi.Date != "unknown" {
		t.Fatalf("unexpected build info: %+v", bi)
	}
	if got := bi.String(); got != "vqa-merge dev (commit none, built unknown)" {
		t.Fatalf("String() = %q", got)
	}
	if Version() != "dev" {
		t.Fatalf("Version() = %q", Version())
	}
}
