package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type changeRateTestCase struct {
	new                float64
	old                float64
	expectedChangeRate float64
}

func TestChangeRate(t *testing.T) {
	cases := []changeRateTestCase{
		{10, 10, 0},
		{0, 10, -100},
		{3, 5, -40},
		{3, 2, 50},
	}
	for _, c := range cases {
		assert.Equal(t, c.expectedChangeRate, ChangeRate(c.new, c.old))
	}

	assert.True(t, math.IsInf(ChangeRate(10, 0), 1))
	assert.True(t, math.IsInf(ChangeRate(-10, 0), -1))
	assert.True(t, math.IsNaN(ChangeRate(0, 0)))
}
