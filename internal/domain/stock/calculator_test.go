package stock

import "testing"

func TestAvailableToAdd(t *testing.T) {
	cases := []struct {
		name     string
		total    int
		reserved int
		want     int
	}{
		{"headroom left", 5, 2, 3},
		{"fully reserved", 4, 4, 0},
		{"over-reserved clamps to zero", 3, 7, 0},
		{"nothing reserved", 10, 0, 10},
		{"no stock", 0, 0, 0},
		{"no stock but reserved", 0, 2, 0},
	}

	for _, tc := range cases {
		if got := AvailableToAdd(tc.total, tc.reserved); got != tc.want {
			t.Errorf("%s: AvailableToAdd(%d, %d) = %d, want %d",
				tc.name, tc.total, tc.reserved, got, tc.want)
		}
	}
}

func TestAvailableToAddNeverNegative(t *testing.T) {
	for total := 0; total <= 20; total++ {
		for reserved := 0; reserved <= 20; reserved++ {
			if got := AvailableToAdd(total, reserved); got < 0 {
				t.Fatalf("AvailableToAdd(%d, %d) = %d, negative", total, reserved, got)
			}
		}
	}
}

func TestAvailableToAddMonotonic(t *testing.T) {
	for total := 0; total <= 15; total++ {
		for reserved := 0; reserved <= 15; reserved++ {
			base := AvailableToAdd(total, reserved)

			// more reserved never increases availability
			if got := AvailableToAdd(total, reserved+1); got > base {
				t.Fatalf("reserving more increased availability: (%d,%d)=%d vs (%d,%d)=%d",
					total, reserved, base, total, reserved+1, got)
			}

			// more stock never decreases availability
			if got := AvailableToAdd(total+1, reserved); got < base {
				t.Fatalf("more stock decreased availability: (%d,%d)=%d vs (%d,%d)=%d",
					total, reserved, base, total+1, reserved, got)
			}
		}
	}
}

func TestAvailableToAddIdempotent(t *testing.T) {
	first := AvailableToAdd(7, 3)
	second := AvailableToAdd(7, 3)
	if first != second {
		t.Fatalf("recomputation diverged: %d vs %d", first, second)
	}
}

func TestCalculate(t *testing.T) {
	got := Calculate(5, 2)
	want := Calculation{Total: 5, InCart: 2, Available: 3}
	if got != want {
		t.Fatalf("Calculate(5, 2) = %+v, want %+v", got, want)
	}
}

func TestCanChangeQuantity(t *testing.T) {
	cases := []struct {
		name      string
		current   int
		proposed  int
		available int
		want      bool
	}{
		{"increase within headroom", 3, 8, 5, true},
		{"increase exceeds headroom", 3, 9, 5, false},
		{"increase exactly headroom", 3, 8, 5, true},
		{"decrease always allowed", 3, 1, 0, true},
		{"same quantity allowed", 3, 3, 0, true},
		{"increase with zero headroom", 2, 3, 0, false},
	}

	for _, tc := range cases {
		if got := CanChangeQuantity(tc.current, tc.proposed, tc.available); got != tc.want {
			t.Errorf("%s: CanChangeQuantity(%d, %d, %d) = %v, want %v",
				tc.name, tc.current, tc.proposed, tc.available, got, tc.want)
		}
	}
}
