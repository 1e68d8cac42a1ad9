package module

import "testing"

func TestDecodeFolderKey(t *testing.T) {
	cases := map[string]string{
		"patient-group":       "patient/group",
		"patient":             "patient",
		"a-b-c":               "a/b/c",
		"":                    "",
	}
	for segment, expected := range cases {
		if got := DecodeFolderKey(segment); got != expected {
			t.Fatalf("DecodeFolderKey(%q) = %q, expected %q", segment, got, expected)
		}
	}
}

func TestEncodeFolderKeyRoundTrip(t *testing.T) {
	paths := []string{"patient/group", "patient", "a/b/c"}
	for _, path := range paths {
		segment := EncodeFolderKey(path)
		if got := DecodeFolderKey(segment); got != path {
			t.Fatalf("round trip for %q produced %q via segment %q", path, got, segment)
		}
	}
}

func TestInFolder(t *testing.T) {
	mod := Module{Key: "patient-basic", Folder: "patient/group"}

	if !mod.InFolder("patient/group") {
		t.Fatalf("expected module to be in its own folder")
	}
	if !mod.InFolder("patient") {
		t.Fatalf("expected module to be in parent folder")
	}
	if !mod.InFolder("") {
		t.Fatalf("expected every module to match the root folder")
	}
	if mod.InFolder("patient/groups") {
		t.Fatalf("prefix without separator must not match")
	}
	if mod.InFolder("address") {
		t.Fatalf("unrelated folder must not match")
	}
}
