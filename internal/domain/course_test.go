package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCourse_PriceMinorUnits(t *testing.T) {
	tests := []struct {
		price float64
		want  int64
	}{
		{price: 49.99, want: 4999},
		{price: 0.1 + 0.2, want: 30},
		{price: 999999.99, want: 99999999},
	}

	for _, tt := range tests {
		c := &Course{Price: tt.price}
		assert.Equal(t, tt.want, c.PriceMinorUnits(), "price %v", tt.price)
	}
}
