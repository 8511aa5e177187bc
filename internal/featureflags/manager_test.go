package featureflags

import "testing"

func TestParse_BooleanValues(t *testing.T) {
	for _, raw := range []string{"mask_foreign_goals=on", "mask_foreign_goals=true", " MASK_FOREIGN_GOALS = 1 "} {
		m, err := Parse(raw)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", raw, err)
		}
		if !m.Enabled(MaskForeignGoals) {
			t.Fatalf("%q: expected flag on", raw)
		}
	}
	for _, raw := range []string{"", "mask_foreign_goals=off", "mask_foreign_goals=false", "mask_foreign_goals=0"} {
		m, err := Parse(raw)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", raw, err)
		}
		if m.Enabled(MaskForeignGoals) {
			t.Fatalf("%q: expected flag off", raw)
		}
	}
}

func TestParse_RejectsUnknownAndMalformed(t *testing.T) {
	m, err := Parse("mask_foreign_goals=on, beta_feed=on, mask_foreign_goals, mask_foreign_goals=25%")
	if err == nil {
		t.Fatal("expected an error for unknown and malformed entries")
	}
	if !m.Enabled(MaskForeignGoals) {
		t.Fatal("valid entries must survive a partially bad list")
	}

	if NewManager("mask_foreign_goals=maybe").Enabled(MaskForeignGoals) {
		t.Fatal("an unparseable value must leave the flag off")
	}
}

func TestEnabled_NilManager(t *testing.T) {
	var m *Manager
	if m.Enabled(MaskForeignGoals) {
		t.Fatal("nil manager must report every flag off")
	}
}
