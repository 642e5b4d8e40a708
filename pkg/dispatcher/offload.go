// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package dispatcher

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/socsys/fidentikit/pkg/browser"
	"github.com/socsys/fidentikit/pkg/docstore"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/metrics"
	"github.com/socsys/fidentikit/pkg/model"
)

// artifactExt maps a recognized result key to its stored extension.
// png and har payloads arrive base64+zlib encoded and are stored
// decoded; json payloads are stored as their literal JSON encoding.
func artifactExt(key string) (string, bool) {
	switch {
	case strings.HasSuffix(key, "_screenshot"):
		return "png", true
	case strings.HasSuffix(key, "_har"):
		return "har", true
	case strings.HasSuffix(key, "_storage_state"):
		return "json", true
	case key == "element_tree_markup", key == "metadata_data", key == "sitemap", key == "robots":
		return "json", true
	default:
		return "", false
	}
}

// artifactBucket derives the bucket from the key, e.g.
// login_page_candidate_screenshot -> login-page-candidate-screenshot.
func artifactBucket(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

func contentTypeFor(ext string) string {
	if ext == "png" {
		return "image/png"
	}
	return "application/json"
}

// OffloadArtifacts walks the stored document and moves every recognized
// artifact value into the blob store, replacing it with a blob
// reference. Values that already are references are left untouched, so
// the walk is idempotent.
func (d *Dispatcher) OffloadArtifacts(ctx context.Context, doc docstore.Document, domain string) error {
	return d.offloadNode(ctx, doc, domain)
}

func (d *Dispatcher) offloadNode(ctx context.Context, node map[string]interface{}, domain string) error {
	for key, value := range node {
		if value == nil {
			continue
		}
		if ext, ok := artifactExt(key); ok && !model.IsBlobReference(value) {
			ref, err := d.offloadValue(ctx, key, ext, domain, value)
			if err != nil {
				return err
			}
			node[key] = ref
			continue
		}
		if err := d.offloadChild(ctx, value, domain); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) offloadChild(ctx context.Context, value interface{}, domain string) error {
	switch child := value.(type) {
	case map[string]interface{}:
		return d.offloadNode(ctx, child, domain)
	case []interface{}:
		for _, item := range child {
			if err := d.offloadChild(ctx, item, domain); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Dispatcher) offloadValue(ctx context.Context, key, ext, domain string, value interface{}) (interface{}, error) {
	var payload []byte
	switch ext {
	case "json":
		data, err := json.Marshal(value)
		if err != nil {
			return value, err
		}
		payload = data
	default:
		encoded, ok := value.(string)
		if !ok {
			// Not the wire shape we expect; leave it inline.
			log.Warnf("artifact %s is not an encoded string, keeping inline", key)
			return value, nil
		}
		decoded, err := browser.DecodeArtifact(encoded)
		if err != nil {
			log.Warnf("artifact %s failed to decode, keeping inline: %v", key, err)
			return value, nil
		}
		payload = decoded
	}
	bucket := artifactBucket(key)
	object := domain + "/" + uuid.NewString() + "." + ext
	if err := d.blobs.Put(ctx, bucket, object, payload, contentTypeFor(ext), map[string]string{"domain": domain}); err != nil {
		return value, err
	}
	metrics.OffloadedBytes.WithLabelValues(bucket).Add(float64(len(payload)))
	return model.NewBlobReference(bucket, object, ext), nil
}

// collectBlobRefs gathers every blob reference nested in a document,
// used for garbage collection on scan deletion and duplicate pruning.
func collectBlobRefs(value interface{}) []model.BlobReferenceData {
	var out []model.BlobReferenceData
	switch node := value.(type) {
	case map[string]interface{}:
		if model.IsBlobReference(node) {
			if data, ok := node["data"].(map[string]interface{}); ok {
				ref := model.BlobReferenceData{}
				ref.BucketName, _ = data["bucket_name"].(string)
				ref.ObjectName, _ = data["object_name"].(string)
				ref.Extension, _ = data["extension"].(string)
				if ref.BucketName != "" && ref.ObjectName != "" {
					out = append(out, ref)
				}
			}
			return out
		}
		for _, child := range node {
			out = append(out, collectBlobRefs(child)...)
		}
	case []interface{}:
		for _, child := range node {
			out = append(out, collectBlobRefs(child)...)
		}
	}
	return out
}
