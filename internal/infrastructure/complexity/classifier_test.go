package complexity

import (
	"testing"

	"github.com/naladwepo/procurement-assistant/internal/config"
)

func TestIsCompound(t *testing.T) {
	c := NewClassifier(config.DefaultPolicy())

	cases := []struct {
		query string
		want  bool
	}{
		{"Кабель ВВГ 3х2.5", false},
		{"Лоток перфорированный", false},
		{"", false},
		{"короб 200x200, крышка", true},
		{"короб и крышка", true},
		{"комплект для монтажа", true},
		{"дрель + сверла", true},
		{"4 винта М6", true},
		{"игла швейная", false},
	}
	for _, tc := range cases {
		if got := c.IsCompound(tc.query); got != tc.want {
			t.Errorf("IsCompound(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}
