package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageOfHidesInternalDetail(t *testing.T) {
	err := Wrap(CodeConfig, "Could not connect to the data service. Please contact support.", errors.New("IQAIR_API_KEY missing"))

	require.Equal(t, "Could not connect to the data service. Please contact support.", MessageOf(err))
	require.Contains(t, err.Error(), "IQAIR_API_KEY missing")
	require.True(t, IsCode(err, CodeConfig))
}

func TestMessageOfUnknownError(t *testing.T) {
	require.Equal(t, "something went wrong", MessageOf(errors.New("boom")))
	require.Equal(t, "", MessageOf(nil))
}

func TestCodeOfWrapped(t *testing.T) {
	inner := Wrap(CodeNoStation, "no station", nil)
	wrapped := fmt.Errorf("fetch: %w", inner)

	require.Equal(t, CodeNoStation, CodeOf(wrapped))
	require.Equal(t, "", CodeOf(errors.New("plain")))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	require.Equal(t, "no station", appErr.Message)
}
