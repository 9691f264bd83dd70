package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGreetingName(t *testing.T) {
	cases := []struct {
		address string
		want    string
	}{
		{"jane.doe@example.com", "Jane Doe"},
		{"bob@example.com", "Bob"},
		{"first_middle-last@example.com", "First Middle Last"},
		{"x+tag@example.com", "X Tag"},
		{"@example.com", "there"},
		{"", "there"},
	}
	for _, tc := range cases {
		t.Run(tc.address, func(t *testing.T) {
			assert.Equal(t, tc.want, GreetingName(tc.address))
		})
	}
}
