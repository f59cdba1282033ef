package validators

import (
	"net/http"
	"testing"

	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	v := NewValidator()

	assert.NoError(t, v.Validate(&models.CreateCommentRequest{Content: "hi"}))

	err := v.Validate(&models.CreateCommentRequest{})
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)

	err = v.Validate(&models.CreatePostRequest{Title: "t", Body: []byte(`{}`), Tags: []string{"a", "b", "c", "d", "e", "f"}})
	assert.Error(t, err)
}
