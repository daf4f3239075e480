package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *PipelineError
		want string
	}{
		{
			name: "code and message",
			err:  &PipelineError{Code: CodeStructural, Msg: "column gone"},
			want: "STRUCTURAL_ERROR: column gone",
		},
		{
			name: "with source",
			err:  NewSchemaMismatch("read", "customers", []string{"customer_id"}),
			want: "SCHEMA_MISMATCH: required columns missing: [customer_id] (source=customers)",
		},
		{
			name: "with cause",
			err:  NewStoreWriteFailure("sales_fact", fmt.Errorf("connection reset")),
			want: "STORE_WRITE_FAILURE: table load failed (source=sales_fact): connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPipelineError_Unwrap(t *testing.T) {
	cause := fs.ErrNotExist
	err := NewSourceUnavailable("read", "products", cause)

	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, "read", err.Stage)
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("stage wrapper: %w",
		NewSchemaMismatch("read", "sales", []string{"sale_date"}))

	assert.True(t, IsCode(err, CodeSchemaMismatch))
	assert.False(t, IsCode(err, CodeSourceUnavailable))
	assert.Equal(t, CodeSchemaMismatch, CodeOf(err))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}

func TestPipelineError_IsMatchesByCode(t *testing.T) {
	a := NewSchemaMismatch("read", "sales", []string{"x"})
	b := NewSchemaMismatch("scrub", "customers", []string{"y"})

	require.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, NewStoreWriteFailure("t", nil)))
}
