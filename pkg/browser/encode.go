// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package browser

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"io"
)

// EncodeArtifact compresses a binary artifact and wraps it in base64 so
// it can travel inside a JSON envelope.
func EncodeArtifact(data []byte) string {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeArtifact reverses EncodeArtifact.
func DecodeArtifact(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
