package resource

import "testing"

func TestExt(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"arial.SHX", "shx"},
		{"template.dwt", "dwt"},
		{"archive.tar.gz", "gz"},
		{"noext", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Ext(tt.name); got != tt.want {
			t.Errorf("Ext(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestValidFilter(t *testing.T) {
	for _, f := range []Filter{FilterFiles, FilterFolders, FilterAll} {
		if !ValidFilter(f) {
			t.Errorf("ValidFilter(%s) = false", f)
		}
	}
	for _, f := range []Filter{"", "EVERYTHING", "files"} {
		if ValidFilter(f) {
			t.Errorf("ValidFilter(%q) = true", f)
		}
	}
}

func TestPartitionKey(t *testing.T) {
	s := Scope{Resource: TypeFonts, OwnerType: OwnerOwned, OwnerID: "u1"}
	if got := s.PartitionKey(); got != "FONTS#OWNED#u1" {
		t.Errorf("PartitionKey = %q", got)
	}

	public := Scope{Resource: TypeLisp, OwnerType: OwnerPublic}
	if got := public.PartitionKey(); got != "LISP#PUBLIC#" {
		t.Errorf("PartitionKey = %q", got)
	}
}

func TestChildPath(t *testing.T) {
	if got := ChildPath(nil); got != RootID {
		t.Errorf("ChildPath(nil) = %q", got)
	}

	top := &Object{ID: "a", Path: RootID}
	if got := ChildPath(top); got != "-1/a" {
		t.Errorf("ChildPath(top) = %q", got)
	}

	nested := &Object{ID: "b", Path: "-1/a"}
	if got := ChildPath(nested); got != "-1/a/b" {
		t.Errorf("ChildPath(nested) = %q", got)
	}
}
