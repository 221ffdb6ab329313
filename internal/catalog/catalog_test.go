package catalog

import "testing"

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	env, ok := c.Get("kali-linux")
	if !ok {
		t.Fatal("expected kali-linux in default catalog")
	}
	if env.DisplayName == "" || env.Description == "" {
		t.Error("expected display name and description to be set")
	}

	if len(c.List()) == 0 {
		t.Error("expected non-empty catalog")
	}
}

func TestGetUnknown(t *testing.T) {
	c := Default()

	if _, ok := c.Get("windows-me"); ok {
		t.Error("expected lookup of unknown environment to fail")
	}
	if _, ok := c.Get(""); ok {
		t.Error("expected lookup of empty ID to fail")
	}
}

func TestListPreservesOrder(t *testing.T) {
	c := New(
		Environment{ID: "b"},
		Environment{ID: "a"},
		Environment{ID: "c"},
	)

	list := c.List()
	want := []string{"b", "a", "c"}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, list[i].ID)
		}
	}
}

func TestDuplicateIDsIgnored(t *testing.T) {
	c := New(
		Environment{ID: "a", DisplayName: "first"},
		Environment{ID: "a", DisplayName: "second"},
	)

	if len(c.List()) != 1 {
		t.Fatalf("expected 1 environment, got %d", len(c.List()))
	}
	env, _ := c.Get("a")
	if env.DisplayName != "first" {
		t.Errorf("expected first registration to win, got %q", env.DisplayName)
	}
}

func TestListReturnsCopy(t *testing.T) {
	c := New(Environment{ID: "a", DisplayName: "original"})

	list := c.List()
	list[0].DisplayName = "mutated"

	env, _ := c.Get("a")
	if env.DisplayName != "original" {
		t.Error("mutating the listed slice should not affect the catalog")
	}
}
