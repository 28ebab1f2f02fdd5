// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and utility functions

package errors_test

import (
	stderrors "errors"
	"io/fs"
	"testing"

	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "destination_exists",
			code:    errors.ErrDestinationExists,
			message: "destination already exists",
			wantStr: "[DESTINATION_EXISTS] destination already exists",
		},
		{
			name:    "invalid_input_error",
			code:    errors.ErrInvalidInput,
			message: "invalid configuration",
			wantStr: "[INVALID_INPUT] invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.NotNil(t, err.Details)
			assert.Equal(t, tt.wantStr, err.Error())
		})
	}
}

func TestNewf(t *testing.T) {
	err := errors.Newf(errors.ErrDescriptorRead, "cannot parse %s at line %d", "package.json", 3)
	assert.Equal(t, "cannot parse package.json at line 3", err.Message)
	assert.Equal(t, errors.ErrDescriptorRead, err.Code)
}

func TestWrap(t *testing.T) {
	t.Run("wraps_error", func(t *testing.T) {
		baseErr := stderrors.New("disk on fire")
		err := errors.Wrap(baseErr, errors.ErrFilesystem, "copy failed")

		require.NotNil(t, err)
		assert.Equal(t, errors.ErrFilesystem, err.Code)
		assert.Equal(t, "[FILESYSTEM] copy failed: disk on fire", err.Error())
		assert.True(t, stderrors.Is(err, baseErr))
	})

	t.Run("nil_error_stays_nil", func(t *testing.T) {
		assert.Nil(t, errors.Wrap(nil, errors.ErrInternal, "internal error"))
		assert.Nil(t, errors.Wrapf(nil, errors.ErrInternal, "internal %s", "error"))
	})
}

func TestWithDetails(t *testing.T) {
	err := errors.New(errors.ErrDestinationExists, "destination exists").
		WithDetail("destination", "/tmp/out").
		WithDetails(map[string]interface{}{
			"source":  "/src",
			"replace": false,
		})

	assert.Equal(t, "/tmp/out", err.Details["destination"])
	assert.Equal(t, "/src", err.Details["source"])
	assert.Equal(t, false, err.Details["replace"])
}

func TestIs(t *testing.T) {
	err1 := errors.New(errors.ErrFilesystem, "error 1")
	err2 := errors.New(errors.ErrFilesystem, "error 2")
	err3 := errors.New(errors.ErrDescriptorWrite, "error 3")

	assert.True(t, stderrors.Is(err1, err2), "same code should match")
	assert.False(t, stderrors.Is(err1, err3), "different code should not match")
}

func TestIsErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     errors.ErrorCode
		expected bool
	}{
		{
			name:     "matching_code",
			err:      errors.New(errors.ErrSymlinkLoop, "loop"),
			code:     errors.ErrSymlinkLoop,
			expected: true,
		},
		{
			name:     "different_code",
			err:      errors.New(errors.ErrSymlinkLoop, "loop"),
			code:     errors.ErrFilesystem,
			expected: false,
		},
		{
			name:     "wrapped_chain",
			err:      errors.Wrap(errors.New(errors.ErrDescriptorRead, "bad json"), errors.ErrInternal, "rewrite"),
			code:     errors.ErrInternal,
			expected: true,
		},
		{
			name:     "standard_error",
			err:      stderrors.New("plain"),
			code:     errors.ErrFilesystem,
			expected: false,
		},
		{
			name:     "nil_error",
			err:      nil,
			code:     errors.ErrFilesystem,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, errors.IsErrorCode(tt.err, tt.code))
		})
	}
}

func TestGetErrorCodeAndDetails(t *testing.T) {
	err := errors.New(errors.ErrDescriptorWrite, "write failed").WithDetail("path", "/out/package.json")

	assert.Equal(t, errors.ErrDescriptorWrite, errors.GetErrorCode(err))
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(stderrors.New("plain")))
	assert.Equal(t, "/out/package.json", errors.GetErrorDetails(err)["path"])
	assert.Nil(t, errors.GetErrorDetails(stderrors.New("plain")))
}

func TestFilesystem(t *testing.T) {
	t.Run("wraps_plain_io_error", func(t *testing.T) {
		err := errors.Filesystem(fs.ErrPermission, "readdir", "/src/locked")

		assert.True(t, errors.IsErrorCode(err, errors.ErrFilesystem))
		assert.True(t, stderrors.Is(err, fs.ErrPermission))
		assert.Equal(t, "/src/locked", errors.GetErrorDetails(err)["path"])
	})

	t.Run("keeps_existing_code", func(t *testing.T) {
		inner := errors.New(errors.ErrSymlinkLoop, "too many links")
		err := errors.Filesystem(inner, "stat", "/src/loop")

		assert.Same(t, inner, err)
	})

	t.Run("nil_passes_through", func(t *testing.T) {
		assert.NoError(t, errors.Filesystem(nil, "stat", "/src"))
	})
}
