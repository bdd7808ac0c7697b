package variant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/configurator/internal/domain"
)

func teeAxes() []domain.VariantAxis {
	return []domain.VariantAxis{
		{AttributeCode: "color", Position: 1, InputType: domain.AxisInputDiscrete, Options: []domain.AxisOption{{Code: "red"}, {Code: "blue"}}},
		{AttributeCode: "size", Position: 2, InputType: domain.AxisInputDiscrete, Options: []domain.AxisOption{{Code: "S"}, {Code: "M"}}},
	}
}

func teeVariants() []domain.ProductVariant {
	return []domain.ProductVariant{
		{ID: "v1", SKU: "tee-red-s", Status: domain.VariantStatusActive, AxisValues: map[string]string{"color": "red", "size": "S"}},
		{ID: "v2", SKU: "tee-red-m", Status: domain.VariantStatusActive, AxisValues: map[string]string{"color": "red", "size": "M"}},
		{ID: "v3", SKU: "tee-blue-s", Status: domain.VariantStatusActive, AxisValues: map[string]string{"color": "blue", "size": "S"}},
	}
}

func TestComputeAvailable(t *testing.T) {
	tests := []struct {
		name      string
		variants  []domain.ProductVariant
		selection map[string]string
		want      map[string][]string
	}{
		{
			name:      "empty selection offers everything",
			variants:  teeVariants(),
			selection: map[string]string{},
			want:      map[string][]string{"color": {"blue", "red"}, "size": {"M", "S"}},
		},
		{
			name:      "blue narrows size to S",
			variants:  teeVariants(),
			selection: map[string]string{"color": "blue"},
			want:      map[string][]string{"color": {"blue", "red"}, "size": {"S"}},
		},
		{
			name:      "M narrows color to red",
			variants:  teeVariants(),
			selection: map[string]string{"size": "M"},
			want:      map[string][]string{"color": {"red"}, "size": {"M", "S"}},
		},
		{
			name:      "cleared entries are ignored",
			variants:  teeVariants(),
			selection: map[string]string{"color": ""},
			want:      map[string][]string{"color": {"blue", "red"}, "size": {"M", "S"}},
		},
		{
			name: "inactive variants do not contribute",
			variants: append(teeVariants(), domain.ProductVariant{
				SKU: "tee-blue-m", Status: domain.VariantStatusInactive, AxisValues: map[string]string{"color": "blue", "size": "M"},
			}),
			selection: map[string]string{"color": "blue"},
			want:      map[string][]string{"color": {"blue", "red"}, "size": {"S"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAvailable(tt.variants, tt.selection, teeAxes())
			require.Len(t, got, len(tt.want))
			for axis, codes := range tt.want {
				assert.Equal(t, codes, got[axis].Sorted(), "axis %s", axis)
			}
		})
	}
}

func TestComputeAvailable_NoVariants(t *testing.T) {
	assert.Nil(t, ComputeAvailable(nil, map[string]string{"color": "red"}, teeAxes()))
}

func TestComputeAvailable_ZeroOptionsIsRepresentable(t *testing.T) {
	variants := []domain.ProductVariant{
		{SKU: "a", Status: domain.VariantStatusActive, AxisValues: map[string]string{"color": "red", "size": "S"}},
	}
	got := ComputeAvailable(variants, map[string]string{"color": "blue"}, teeAxes())

	require.Contains(t, got, "size")
	assert.Empty(t, got["size"])
}

// An axis's own current choice never narrows that axis: the set computed
// for A with A selected equals the set computed with A cleared.
func TestComputeAvailable_SelfExclusion(t *testing.T) {
	axes := teeAxes()
	variants := teeVariants()

	for _, color := range []string{"", "red", "blue"} {
		for _, size := range []string{"", "S", "M"} {
			sel := map[string]string{"color": color, "size": size}
			got := ComputeAvailable(variants, sel, axes)

			for _, a := range axes {
				own := sel[a.AttributeCode]
				if own == "" {
					continue
				}
				without := map[string]string{}
				for k, v := range sel {
					if k != a.AttributeCode {
						without[k] = v
					}
				}
				want := ComputeAvailable(variants, without, axes)[a.AttributeCode]
				assert.Equal(t, want.Sorted(), got[a.AttributeCode].Sorted(), "selection %v, axis %s", sel, a.AttributeCode)

				if reachable(variants, without, a.AttributeCode, own) {
					assert.True(t, got[a.AttributeCode].Has(own), "selection %v: axis %s lost its own value", sel, a.AttributeCode)
				}
			}
		}
	}
}

func reachable(variants []domain.ProductVariant, others map[string]string, axis, code string) bool {
	for _, v := range variants {
		if v.IsActive() && agreesExcept(v.AxisValues, others, "") && v.AxisValues[axis] == code {
			return true
		}
	}
	return false
}

func TestComputeAvailable_OwnValueSurvivesItsOwnSelection(t *testing.T) {
	got := ComputeAvailable(teeVariants(), map[string]string{"color": "blue"}, teeAxes())

	// Switching from blue to red must stay possible.
	assert.True(t, got["color"].Has("blue"))
	assert.True(t, got["color"].Has("red"))
}

func TestResolveAvailability(t *testing.T) {
	server := map[string][]domain.AxisOption{"size": {{Code: "S"}}}

	t.Run("local wins over server", func(t *testing.T) {
		a := ResolveAvailability(teeVariants(), map[string]string{}, teeAxes(), server)
		assert.Equal(t, SourceLocal, a.Source)
		assert.True(t, a.IsAvailable("size", "M"))
	})

	t.Run("server is the fallback", func(t *testing.T) {
		a := ResolveAvailability(nil, map[string]string{}, teeAxes(), server)
		assert.Equal(t, SourceServer, a.Source)
		assert.True(t, a.IsAvailable("size", "S"))
		assert.False(t, a.IsAvailable("size", "M"))
		assert.True(t, a.IsAvailable("color", "red"), "axes missing from the server map are unconstrained")
	})

	t.Run("nothing known", func(t *testing.T) {
		a := ResolveAvailability(nil, map[string]string{}, teeAxes(), nil)
		assert.Equal(t, SourceUnconstrained, a.Source)
		assert.True(t, a.IsAvailable("size", "XL"))
	})
}

func TestIsComplete(t *testing.T) {
	axes := append(teeAxes(), domain.VariantAxis{AttributeCode: "width", InputType: domain.AxisInputRange, MinValue: 1, MaxValue: 2})

	assert.False(t, IsComplete(map[string]string{}, axes))
	assert.False(t, IsComplete(map[string]string{"color": "red", "size": ""}, axes))
	assert.True(t, IsComplete(map[string]string{"color": "red", "size": "S"}, axes), "range axes do not count")
	assert.True(t, IsComplete(nil, nil))
}

func TestMatchVariant(t *testing.T) {
	axes := teeAxes()

	t.Run("exact match", func(t *testing.T) {
		v := MatchVariant(teeVariants(), map[string]string{"color": "red", "size": "M"}, axes)
		require.NotNil(t, v)
		assert.Equal(t, "tee-red-m", v.SKU)
	})

	t.Run("partial selection never matches", func(t *testing.T) {
		assert.Nil(t, MatchVariant(teeVariants(), map[string]string{"color": "blue"}, axes))
	})

	t.Run("complete but unmatched", func(t *testing.T) {
		assert.Nil(t, MatchVariant(teeVariants(), map[string]string{"color": "blue", "size": "M"}, axes))
	})

	t.Run("active preferred over inactive", func(t *testing.T) {
		variants := []domain.ProductVariant{
			{SKU: "old", Status: domain.VariantStatusInactive, AxisValues: map[string]string{"color": "red", "size": "S"}},
			{SKU: "new", Status: domain.VariantStatusActive, AxisValues: map[string]string{"color": "red", "size": "S"}},
		}
		v := MatchVariant(variants, map[string]string{"color": "red", "size": "S"}, axes)
		require.NotNil(t, v)
		assert.Equal(t, "new", v.SKU)
	})

	t.Run("inactive match is still a match", func(t *testing.T) {
		variants := []domain.ProductVariant{
			{SKU: "old", Status: domain.VariantStatusInactive, AxisValues: map[string]string{"color": "red", "size": "S"}},
		}
		v := MatchVariant(variants, map[string]string{"color": "red", "size": "S"}, axes)
		require.NotNil(t, v)
		assert.False(t, v.Purchasable())
	})
}

// MatchVariant returns V iff V's axis values equal the selection on every
// discrete axis.
func TestMatchVariant_Totality(t *testing.T) {
	axes := teeAxes()
	variants := teeVariants()

	for _, color := range []string{"red", "blue"} {
		for _, size := range []string{"S", "M"} {
			sel := map[string]string{"color": color, "size": size}
			got := MatchVariant(variants, sel, axes)

			var want *domain.ProductVariant
			for i := range variants {
				if variants[i].AxisValues["color"] == color && variants[i].AxisValues["size"] == size {
					want = &variants[i]
				}
			}
			if want == nil {
				assert.Nil(t, got, "selection %v", sel)
				continue
			}
			require.NotNil(t, got, "selection %v", sel)
			assert.Equal(t, want.SKU, got.SKU)
		}
	}
}

func TestResolve(t *testing.T) {
	state, v := Resolve(teeVariants(), map[string]string{"color": "blue"}, teeAxes())
	assert.Equal(t, MatchIncomplete, state)
	assert.Nil(t, v)

	state, v = Resolve(teeVariants(), map[string]string{"color": "blue", "size": "M"}, teeAxes())
	assert.Equal(t, MatchInvalidCombination, state)
	assert.Nil(t, v)

	state, v = Resolve(teeVariants(), map[string]string{"color": "blue", "size": "S"}, teeAxes())
	assert.Equal(t, MatchMatched, state)
	assert.Equal(t, "tee-blue-s", v.SKU)
}

func TestFindBySKU(t *testing.T) {
	assert.Equal(t, "v2", FindBySKU(teeVariants(), "tee-red-m").ID)
	assert.Nil(t, FindBySKU(teeVariants(), "nope"))
	assert.Nil(t, FindBySKU(teeVariants(), ""))
}

func TestSelection_CloneIsIndependent(t *testing.T) {
	s := NewSelection()
	s.Options["color"] = "red"
	s.Values["width"] = 10

	c := s.Clone()
	c.Options["color"] = "blue"
	c.Values["width"] = 20

	assert.Equal(t, "red", s.Options["color"])
	assert.Equal(t, 10.0, s.Values["width"])
}

func TestErrorsAreTyped(t *testing.T) {
	m := NewMachine(teeAxes(), teeVariants())

	_, err := m.SetAxis("fabric", "cotton")
	assert.True(t, errors.Is(err, domain.ErrUnknownAxis))
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}
