package storage

import (
	"errors"
	"testing"
)

func TestVectorHitsUsable(t *testing.T) {
	hit := []Hit{{ID: "post_orders", Distance: 0.1}}

	tests := []struct {
		name string
		hits []Hit
		err  error
		want bool
	}{
		{"hits", hit, nil, true},
		{"stage rejected", nil, errors.New("$vectorSearch stage is only allowed on MongoDB Atlas"), false},
		{"missing index answers empty", nil, nil, false},
		{"error with partial hits", hit, errors.New("cursor died"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vectorHitsUsable(tt.hits, tt.err); got != tt.want {
				t.Errorf("vectorHitsUsable = %v, want %v", got, tt.want)
			}
		})
	}
}
