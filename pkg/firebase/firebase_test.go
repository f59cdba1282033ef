package firebase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthClient_Credentials(t *testing.T) {
	t.Parallel()

	_, err := NewAuthClient(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = NewAuthClient(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
