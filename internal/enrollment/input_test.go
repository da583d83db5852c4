package enrollment

import (
	"testing"

	apierrors "console/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeCode(t *testing.T) {
	t.Run("should strip everything that is not a digit", func(t *testing.T) {
		assert.Equal(t, "123456", SanitizeCode("12 34-56"))
		assert.Equal(t, "123456", SanitizeCode("a1b2c3d4e5f6"))
		assert.Equal(t, "", SanitizeCode("abcdef"))
	})

	t.Run("should clip to six digits", func(t *testing.T) {
		assert.Equal(t, "123456", SanitizeCode("1234567890"))
	})

	t.Run("should pass partial input through unchanged", func(t *testing.T) {
		assert.Equal(t, "123", SanitizeCode("123"))
		assert.Equal(t, "", SanitizeCode(""))
	})
}

func TestCodeComplete(t *testing.T) {
	t.Run("should only accept exactly six digits", func(t *testing.T) {
		assert.True(t, CodeComplete("123456"))
		assert.True(t, CodeComplete("000000"))
		assert.False(t, CodeComplete("12345"))
		assert.False(t, CodeComplete("1234567"))
		assert.False(t, CodeComplete(""))
		assert.False(t, CodeComplete("12345a"))
	})
}

func TestValidateCode(t *testing.T) {
	t.Run("should report malformed codes as local validation failures", func(t *testing.T) {
		err := ValidateCode("12345")
		assert.True(t, apierrors.IsValidation(err))
		assert.NoError(t, ValidateCode("654321"))
	})
}
