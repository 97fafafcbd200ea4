package pgstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberContainment(t *testing.T) {
	got, err := memberContainment(`b"@x.com`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"allowEmails":["b\"@x.com"]}]`, got)
}
