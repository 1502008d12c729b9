package cmd

import (
	"testing"

	"github.com/moamenhredeen/oascontract/internal/models"
	"github.com/moamenhredeen/oascontract/internal/parser"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterOperations(t *testing.T) {
	p, err := parser.ParseFile(afero.NewOsFs(), "../testdata/openapi.yaml")
	require.NoError(t, err)
	operations := p.GetOperations()

	ids := func(ops []models.Operation) []string {
		var out []string
		for _, op := range ops {
			out = append(out, op.OperationID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter string
		tags   []string
		want   []string
	}{
		{"no filter", "", nil, []string{"listUsers", "createUser", "getCurrentUser", "getUser", "uploadAvatar"}},
		{"by path", "avatar", nil, []string{"uploadAvatar"}},
		{"by operation id", "Current", nil, []string{"getCurrentUser"}},
		{"by tag", "", []string{"admin"}, []string{"createUser"}},
		{"by any tag", "", []string{"admin", "avatars"}, []string{"createUser", "uploadAvatar"}},
		{"path and tag", "/users/{id}", []string{"users"}, []string{"getUser"}},
		{"nothing", "pets", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(filterOperations(operations, tt.filter, tt.tags)))
		})
	}
}
