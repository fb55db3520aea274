package strategy

import (
	"testing"

	"github.com/ppiankov/assignparse/internal/validate"
	"github.com/stretchr/testify/require"
)

func mustValidator(t *testing.T) *validate.Validator {
	t.Helper()
	v, err := validate.NewValidator()
	require.NoError(t, err)
	return v
}
