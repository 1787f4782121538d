package exception_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gefpower/windprep/internal/support/exception"
)

func TestBatchError_FormatsModuleKindAndMessage(t *testing.T) {
	err := exception.NewParseError("reader", "row %d: invalid zone id '%s'", 7, "abc")
	assert.Equal(t, "[reader] ParseError: row 7: invalid zone id 'abc'", err.Error())
}

func TestBatchError_WrapsTrailingError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := exception.NewSchemaError("reader", "malformed CSV row %d", 12, cause)

	assert.Equal(t, "malformed CSV row 12", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unexpected EOF")
}

func TestKindPredicates(t *testing.T) {
	parse := exception.NewParseError("m", "p")
	schema := exception.NewSchemaError("m", "s")
	write := exception.NewWriteError("m", "w")

	assert.True(t, exception.IsParse(parse))
	assert.False(t, exception.IsParse(schema))
	assert.True(t, exception.IsSchema(schema))
	assert.True(t, exception.IsWrite(write))
	assert.False(t, exception.IsWrite(parse))
}

func TestKindPredicates_SeeThroughWrapping(t *testing.T) {
	inner := exception.NewWriteError("writer", "disk full")
	wrapped := fmt.Errorf("sink failed: %w", inner)

	assert.True(t, exception.IsWrite(wrapped))
	assert.True(t, exception.IsKind(wrapped, exception.KindWrite))
	assert.False(t, exception.IsKind(wrapped, exception.KindParse))
}

func TestIsFatalToDataset(t *testing.T) {
	assert.True(t, exception.IsFatalToDataset(exception.NewParseError("m", "p")))
	assert.True(t, exception.IsFatalToDataset(exception.NewSchemaError("m", "s")))
	assert.False(t, exception.IsFatalToDataset(exception.NewWriteError("m", "w")))

	// Unclassified errors abort rather than getting silently swallowed.
	assert.True(t, exception.IsFatalToDataset(errors.New("who knows")))
	assert.False(t, exception.IsFatalToDataset(nil))
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", exception.ExtractErrorMessage(nil))
	assert.Equal(t, "plain", exception.ExtractErrorMessage(errors.New("plain")))

	be := exception.NewWriteError("writer", "failed to create '%s'", "/out/x.gob", errors.New("permission denied"))
	assert.Equal(t, "failed to create '/out/x.gob'", exception.ExtractErrorMessage(be))
}
