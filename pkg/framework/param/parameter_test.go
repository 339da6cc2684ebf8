package param

import (
	"errors"
	"math"
	"testing"
)

func TestParameter(t *testing.T) {
	t.Run("PlainRoundTrip", func(t *testing.T) {
		p := New(0, "Center").Range(-1, 1).Default(0).Build()

		if p.GetValue() != 0.5 {
			t.Errorf("Default should normalize to 0.5, got %f", p.GetValue())
		}

		p.SetPlainValue(-0.25)
		if math.Abs(p.GetPlainValue()+0.25) > 1e-12 {
			t.Errorf("Expected -0.25, got %f", p.GetPlainValue())
		}
	})

	t.Run("Clamping", func(t *testing.T) {
		p := New(1, "Range").Range(0, 200).Unit("ms").Build()

		p.SetPlainValue(500)
		if p.GetPlainValue() != 200 {
			t.Errorf("Expected clamp to 200, got %f", p.GetPlainValue())
		}

		p.SetValue(math.NaN())
		if p.GetValue() != 0 {
			t.Errorf("NaN should clamp to 0, got %f", p.GetValue())
		}
	})

	t.Run("DegenerateRange", func(t *testing.T) {
		p := New(2, "Fixed").Range(3, 3).Build()
		if p.Normalize(10) != 0 {
			t.Error("Degenerate range should normalize to 0")
		}
		if p.GetPlainValue() != 3 {
			t.Errorf("Expected 3, got %f", p.GetPlainValue())
		}
	})

	t.Run("ResetToDefault", func(t *testing.T) {
		p := New(3, "Speed").Range(1, 16).Default(4).Build()
		p.SetPlainValue(12)
		p.ResetToDefault()
		if math.Abs(p.GetPlainValue()-4) > 1e-12 {
			t.Errorf("Expected default 4, got %f", p.GetPlainValue())
		}
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	rangeParam := New(0, "Range").Range(0, 200).Build()
	centerParam := New(1, "Center").Range(-1, 1).Build()

	if err := r.Add(rangeParam, centerParam); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	t.Run("Lookup", func(t *testing.T) {
		if r.Get(1) != centerParam {
			t.Error("Get by ID failed")
		}
		if r.GetByName("range") != rangeParam {
			t.Error("GetByName should be case-insensitive")
		}
		if r.GetByName("missing") != nil {
			t.Error("Unknown name should return nil")
		}
		if r.GetByIndex(1) != centerParam || r.GetByIndex(2) != nil || r.GetByIndex(-1) != nil {
			t.Error("GetByIndex mismatch")
		}
		if r.Count() != 2 {
			t.Errorf("Expected 2 parameters, got %d", r.Count())
		}
	})

	t.Run("Order", func(t *testing.T) {
		all := r.All()
		if len(all) != 2 || all[0] != rangeParam || all[1] != centerParam {
			t.Error("All should preserve registration order")
		}
	})

	t.Run("Duplicates", func(t *testing.T) {
		err := r.Add(New(0, "Other").Build())
		if !errors.Is(err, ErrDuplicateParameter) {
			t.Errorf("Expected ErrDuplicateParameter for ID clash, got %v", err)
		}

		err = r.Add(New(9, "CENTER").Build())
		if !errors.Is(err, ErrDuplicateParameter) {
			t.Errorf("Expected ErrDuplicateParameter for name clash, got %v", err)
		}
	})

	t.Run("ResetToDefaults", func(t *testing.T) {
		rangeParam.SetPlainValue(150)
		r.ResetToDefaults()
		if rangeParam.GetPlainValue() != 0 {
			t.Errorf("Expected default 0, got %f", rangeParam.GetPlainValue())
		}
	})
}
