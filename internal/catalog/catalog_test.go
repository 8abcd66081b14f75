package catalog

import "testing"

func TestNormalizeDrink(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"latte", "latte", true},
		{"Latte", "latte", true},
		{"  FLAT WHITE  ", "flat white", true},
		{"espresso", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeDrink(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("NormalizeDrink(%q) = %q, %v; want %q, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestNormalizeSize(t *testing.T) {
	got, ok := NormalizeSize(" Medium ")
	if !ok || got != "medium" {
		t.Errorf("NormalizeSize = %q, %v", got, ok)
	}
	if _, ok := NormalizeSize("tiny"); ok {
		t.Error("NormalizeSize accepted unknown size")
	}
}

func TestNormalizeMilkSynonyms(t *testing.T) {
	yes := []string{"yes", "Y", " да ", "YES"}
	for _, in := range yes {
		got, ok := NormalizeMilk(in)
		if !ok || got != "yes" {
			t.Errorf("NormalizeMilk(%q) = %q, %v; want yes", in, got, ok)
		}
	}
	no := []string{"no", "N", "нет"}
	for _, in := range no {
		got, ok := NormalizeMilk(in)
		if !ok || got != "no" {
			t.Errorf("NormalizeMilk(%q) = %q, %v; want no", in, got, ok)
		}
	}
	if _, ok := NormalizeMilk("maybe"); ok {
		t.Error("NormalizeMilk accepted ambiguous answer")
	}
}

func TestDrinkLabel(t *testing.T) {
	if got := DrinkLabel("flat white"); got != "Flat White" {
		t.Errorf("DrinkLabel(flat white) = %q", got)
	}
	if got := DrinkLabel("all"); got != "All" {
		t.Errorf("DrinkLabel(all) = %q", got)
	}
	if got := DrinkLabel(""); got != "All" {
		t.Errorf("DrinkLabel(empty) = %q", got)
	}
	// Unknown codes pass through title-cased rather than vanishing.
	if got := DrinkLabel("ristretto"); got == "" {
		t.Error("DrinkLabel(unknown) is empty")
	}
}

func TestMilkLabel(t *testing.T) {
	if got := MilkLabel("yes"); got != "With milk" {
		t.Errorf("MilkLabel(yes) = %q", got)
	}
	if got := MilkLabel("no"); got != "No milk" {
		t.Errorf("MilkLabel(no) = %q", got)
	}
}

func TestDrinkCodesSortedAndComplete(t *testing.T) {
	codes := DrinkCodes()
	if len(codes) != len(Drinks) {
		t.Fatalf("DrinkCodes returned %d codes, want %d", len(codes), len(Drinks))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("DrinkCodes not sorted: %v", codes)
		}
	}
	for _, code := range codes {
		if !IsDrink(code) {
			t.Errorf("IsDrink(%q) = false for catalog code", code)
		}
	}
}
