package platform

import "testing"

func TestListInterfaces(t *testing.T) {
	infos, err := ListInterfaces()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) == 0 {
		t.Skip("no network interfaces available")
	}
	for _, info := range infos {
		if info.Name == "" {
			t.Fatalf("expected interface name to be set: %+v", info)
		}
	}
}

func TestFindInterfaceEmptyName(t *testing.T) {
	if _, err := FindInterface(""); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestFindInterfaceUnknown(t *testing.T) {
	if _, err := FindInterface("definitely-not-an-interface-0"); err == nil {
		t.Fatalf("expected error for unknown interface")
	}
}

func TestFindInterfaceByName(t *testing.T) {
	infos, err := ListInterfaces()
	if err != nil || len(infos) == 0 {
		t.Skip("no network interfaces available")
	}
	got, err := FindInterface(infos[0].Name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != infos[0].Name {
		t.Fatalf("expected %q, got %q", infos[0].Name, got.Name)
	}
}
