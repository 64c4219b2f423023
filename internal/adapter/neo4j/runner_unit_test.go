package neo4j

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDropIndexCypher(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "movie_id_index", "DROP INDEX `movie_id_index` IF EXISTS"},
		{"embedded backtick", "a`b", "DROP INDEX `a``b` IF EXISTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dropIndexCypher(tt.in))
		})
	}
}
