package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConverterTestSuite covers lookup, normalization and conversion
type ConverterTestSuite struct {
	suite.Suite
}

func (suite *ConverterTestSuite) TestLookup() {
	suite.Run("CanonicalKey_ShouldMatch", func() {
		def, ok := Lookup("cup")

		require.True(suite.T(), ok)
		assert.Equal(suite.T(), ClassVolume, def.Class)
		assert.InDelta(suite.T(), 236.588, def.Factor, 1e-9)
	})

	suite.Run("SpellingWithCaseAndPeriod_ShouldMatch", func() {
		def, ok := Lookup("  Tbsp. ")

		require.True(suite.T(), ok)
		assert.Equal(suite.T(), "tbsp", def.Name)
	})

	suite.Run("UppercaseT_ShouldBeTablespoon", func() {
		big, ok := Lookup("T")
		require.True(suite.T(), ok)
		small, ok := Lookup("t")
		require.True(suite.T(), ok)

		assert.Equal(suite.T(), "tbsp", big.Name)
		assert.Equal(suite.T(), "tsp", small.Name)
	})

	suite.Run("UnknownUnit_ShouldMiss", func() {
		_, ok := Lookup("smidgen")

		assert.False(suite.T(), ok)
	})
}

func (suite *ConverterTestSuite) TestNormalize() {
	suite.Run("TwoCups_ShouldBeMillilitres", func() {
		// Act
		n := Normalize(2, "cup")

		// Assert
		assert.Equal(suite.T(), BaseVolume, n.NormalizedUnit)
		assert.InDelta(suite.T(), 473.176, n.NormalizedQuantity, 1e-9)
		assert.Equal(suite.T(), 2.0, n.DisplayQuantity)
		assert.Equal(suite.T(), "cup", n.DisplayUnit)
	})

	suite.Run("Pounds_ShouldBeGrams", func() {
		n := Normalize(2, "lbs")

		assert.Equal(suite.T(), BaseWeight, n.NormalizedUnit)
		assert.InDelta(suite.T(), 907.184, n.NormalizedQuantity, 1e-9)
	})

	suite.Run("OtherClass_ShouldPassThrough", func() {
		n := Normalize(3, "Cloves")

		assert.Equal(suite.T(), 3.0, n.NormalizedQuantity)
		assert.Equal(suite.T(), "cloves", n.NormalizedUnit)
	})

	suite.Run("UnknownUnit_ShouldLowercaseOnly", func() {
		n := Normalize(1.5, "Smidgen")

		assert.Equal(suite.T(), 1.5, n.NormalizedQuantity)
		assert.Equal(suite.T(), "smidgen", n.NormalizedUnit)
		assert.Equal(suite.T(), "smidgen", n.DisplayUnit)
	})

	suite.Run("AlreadyNormalizedUnit_ShouldBeIdempotent", func() {
		for _, def := range Definitions() {
			first := Normalize(1, def.Name)
			second := Normalize(first.NormalizedQuantity, first.NormalizedUnit)

			assert.Equal(suite.T(), first.NormalizedUnit, second.NormalizedUnit, def.Name)
			assert.InDelta(suite.T(), first.NormalizedQuantity, second.NormalizedQuantity, 1e-9, def.Name)
		}
	})
}

func (suite *ConverterTestSuite) TestConvert() {
	suite.Run("TablespoonToTeaspoon_ShouldBeAboutThree", func() {
		got, err := Convert(1, "tbsp", "tsp")

		require.NoError(suite.T(), err)
		assert.InDelta(suite.T(), 3.0, got, 0.001)
	})

	suite.Run("RoundTrip_ShouldReturnOriginal", func() {
		defs := Definitions()
		for _, a := range defs {
			for _, b := range defs {
				if a.Class != b.Class || !a.Convertible() {
					continue
				}
				there, err := Convert(7.25, a.Name, b.Name)
				require.NoError(suite.T(), err)
				back, err := Convert(there, b.Name, a.Name)
				require.NoError(suite.T(), err)

				assert.InDelta(suite.T(), 7.25, back, 1e-9, "%s <-> %s", a.Name, b.Name)
			}
		}
	})

	suite.Run("VolumeToWeight_ShouldFail", func() {
		_, err := Convert(1, "cup", "g")

		assert.ErrorIs(suite.T(), err, ErrIncompatibleUnitClass)
	})

	suite.Run("OtherClass_ShouldFail", func() {
		_, err := Convert(1, "pinch", "tsp")

		assert.ErrorIs(suite.T(), err, ErrNonConvertibleUnit)
	})

	suite.Run("UnknownUnit_ShouldFail", func() {
		_, err := Convert(1, "cup", "bucket")

		assert.ErrorIs(suite.T(), err, ErrUnknownUnit)
	})
}

func (suite *ConverterTestSuite) TestCompatibility() {
	assert.True(suite.T(), Compatible("ml", "cup"))
	assert.True(suite.T(), Compatible("pinch", "Pinch"))
	assert.False(suite.T(), Compatible("g", "ml"))

	got, ok := ConvertNormalized(1000, "g", "kg")
	assert.True(suite.T(), ok)
	assert.InDelta(suite.T(), 1.0, got, 1e-9)

	got, ok = ConvertNormalized(5, "clove", "g")
	assert.False(suite.T(), ok)
	assert.Equal(suite.T(), 5.0, got)
}

func (suite *ConverterTestSuite) TestFormatForDisplay() {
	cases := map[string]struct {
		quantity float64
		unit     string
		want     string
	}{
		"Half":          {0.5, "cup", "½ cup"},
		"OneAndQuarter": {1.25, "tsp", "1¼ tsp"},
		"Third":         {0.333, "cup", "⅓ cup"},
		"NearThreeQ":    {2.74, "lb", "2¾ lb"},
		"Plain":         {1.1, "kg", "1.1 kg"},
		"Whole":         {3, "", "3"},
		"Rounded":       {107.1849, "g", "107.18 g"},
	}

	for name, tc := range cases {
		suite.Run(name, func() {
			assert.Equal(suite.T(), tc.want, FormatForDisplay(tc.quantity, tc.unit))
		})
	}
}

func TestConverterTestSuite(t *testing.T) {
	suite.Run(t, new(ConverterTestSuite))
}
