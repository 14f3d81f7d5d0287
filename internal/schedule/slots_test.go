package schedule

import "testing"

func TestAvailableSlots(t *testing.T) {
	slots := AvailableSlots()
	if len(slots) != 40 {
		t.Fatalf("expected 40 slots, got %d", len(slots))
	}

	seen := make(map[string]bool)
	for _, s := range slots {
		if seen[s] {
			t.Errorf("duplicate slot %q", s)
		}
		seen[s] = true
	}

	if slots[0] != "Monday - 9:00" {
		t.Errorf("unexpected first slot %q", slots[0])
	}
	if slots[7] != "Monday - 16:00" {
		t.Errorf("unexpected eighth slot %q", slots[7])
	}
	if slots[39] != "Friday - 16:00" {
		t.Errorf("unexpected last slot %q", slots[39])
	}

	again := AvailableSlots()
	for i := range slots {
		if slots[i] != again[i] {
			t.Fatalf("order changed at %d: %q vs %q", i, slots[i], again[i])
		}
	}
}

func TestIsSlot(t *testing.T) {
	if !IsSlot("Wednesday - 12:00") {
		t.Error("expected Wednesday noon to be a slot")
	}
	for _, bad := range []string{"", "Saturday - 10:00", "Monday - 8:00", "Monday - 17:00", "monday - 9:00"} {
		if IsSlot(bad) {
			t.Errorf("did not expect %q to be a slot", bad)
		}
	}
}
