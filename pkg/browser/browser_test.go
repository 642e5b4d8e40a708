// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyNavError(t *testing.T) {
	cases := []struct {
		err    error
		reason Reason
	}{
		{fmt.Errorf("page load error net::ERR_NAME_NOT_RESOLVED"), ReasonDNS},
		{fmt.Errorf("page load error net::ERR_CONNECTION_RESET"), ReasonReset},
		{fmt.Errorf("page load error net::ERR_EMPTY_RESPONSE"), ReasonEmptyResponse},
		{fmt.Errorf("page load error net::ERR_ADDRESS_UNREACHABLE"), ReasonAddressUnreachable},
		{fmt.Errorf("page load error net::ERR_CONNECTION_REFUSED"), ReasonAddressUnreachable},
		{context.DeadlineExceeded, ReasonTimeout},
		{fmt.Errorf("page crashed"), ReasonPageCrash},
		{fmt.Errorf("something else entirely"), ReasonOther},
	}
	for _, tc := range cases {
		nav := ClassifyNavError(tc.err)
		require.NotNil(t, nav)
		assert.Equal(t, tc.reason, nav.Reason, "error: %v", tc.err)
	}
	assert.Nil(t, ClassifyNavError(nil))
}

func TestClassifyNavErrorPassesThroughTyped(t *testing.T) {
	orig := &NavError{Reason: ReasonStatusCode, StatusCode: 503}
	wrapped := fmt.Errorf("navigate: %w", orig)
	nav := ClassifyNavError(wrapped)
	assert.Same(t, orig, nav)
	assert.Equal(t, 503, nav.StatusCode)
}

func TestNavErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("net::ERR_NAME_NOT_RESOLVED")
	nav := ClassifyNavError(cause)
	assert.True(t, errors.Is(nav, cause))
	assert.Contains(t, nav.Error(), "DNS")
}

func TestEncodeArtifactRoundTrip(t *testing.T) {
	payload := []byte("a screenshot would go here, repeated repeated repeated repeated")
	encoded := EncodeArtifact(payload)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeArtifact(encoded)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestWebauthnCaptureScriptEncodesBufferBytes(t *testing.T) {
	// Challenges and user ids arrive as ArrayBuffers; the capture script
	// must carry their contents, not just their lengths.
	assert.Contains(t, webauthnCaptureScript, "btoa(")
	assert.Contains(t, webauthnCaptureScript, "Uint8Array")
	assert.NotContains(t, webauthnCaptureScript, "v.byteLength")
}

func TestDecodeArtifactRejectsGarbage(t *testing.T) {
	_, err := DecodeArtifact("not base64!!!")
	assert.Error(t, err)

	_, err = DecodeArtifact("aGVsbG8=") // valid base64, not zlib
	assert.Error(t, err)
}
