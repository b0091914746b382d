package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind_Retryable(t *testing.T) {
	retryable := []ErrorKind{KindTimeout, KindConnReset, KindRateLimited, KindServerError}
	for _, k := range retryable {
		assert.True(t, k.Retryable(), string(k))
	}
	permanent := []ErrorKind{KindBadRequest, KindAuth, KindParse, KindUnknownProvider}
	for _, k := range permanent {
		assert.False(t, k.Retryable(), string(k))
	}
}

func TestProviderError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewProviderError("groq", KindConnReset, 0, "dial failed", cause)

	assert.Contains(t, err.Error(), "groq")
	assert.Contains(t, err.Error(), "conn_reset")
	assert.NotContains(t, err.Error(), "status")
	assert.ErrorIs(t, err, cause)

	withStatus := NewProviderError("gemini", KindRateLimited, 429, "quota", nil)
	assert.Contains(t, withStatus.Error(), "status 429")
}

func TestKindOf(t *testing.T) {
	pe := NewProviderError("groq", KindAuth, 401, "bad key", nil)
	assert.Equal(t, KindAuth, KindOf(pe))

	wrapped := fmt.Errorf("op=generate: %w", pe)
	assert.Equal(t, KindAuth, KindOf(wrapped))

	// Unclassified errors default to retryable server_error.
	assert.Equal(t, KindServerError, KindOf(errors.New("something odd")))
}

func TestClassifyStatus(t *testing.T) {
	cases := map[int]ErrorKind{
		429: KindRateLimited,
		401: KindAuth,
		403: KindAuth,
		400: KindBadRequest,
		404: KindBadRequest,
		500: KindServerError,
		503: KindServerError,
		599: KindServerError,
	}
	for status, want := range cases {
		assert.Equal(t, want, ClassifyStatus(status), "status %d", status)
	}
}
