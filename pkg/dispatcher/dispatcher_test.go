// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/loginpage"
	"github.com/socsys/fidentikit/pkg/model"
)

func testDispatcher() *Dispatcher {
	return New(&config.Config{Analysis: config.DefaultAnalysisConfig()}, nil, nil, nil)
}

func TestMaterializeSingle(t *testing.T) {
	d := testDispatcher()
	tasks, err := d.Materialize(t.Context(), model.AnalyzerLandscape, model.ScanConfig{
		ScanType: model.ScanTypeSingle,
		Domain:   "example.com",
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "example.com", tasks[0].Domain)
	assert.NotNil(t, tasks[0].Analysis)
}

func TestMaterializeSingleRequiresDomain(t *testing.T) {
	_, err := testDispatcher().Materialize(t.Context(), model.AnalyzerLandscape,
		model.ScanConfig{ScanType: model.ScanTypeSingle})
	assert.Error(t, err)
}

func TestMaterializeRejectsUnknownType(t *testing.T) {
	_, err := testDispatcher().Materialize(t.Context(), model.AnalyzerLandscape,
		model.ScanConfig{ScanType: "bogus"})
	assert.Error(t, err)
}

func TestManualAnalysisPinsCandidates(t *testing.T) {
	base := config.DefaultAnalysisConfig()
	analysis := manualAnalysis(base, []string{"https://example.com/login"})
	assert.Equal(t, []string{loginpage.StrategyManual}, analysis.LoginPage.LoginPageStrategyScope)
	assert.Equal(t, []string{"https://example.com/login"}, analysis.LoginPage.Manual.URLs)
	// base stays untouched
	assert.NotEqual(t, base.LoginPage.Manual.URLs, analysis.LoginPage.Manual.URLs)
}

func TestArtifactExtRecognizesKeySet(t *testing.T) {
	cases := map[string]string{
		"idp_screenshot":                  "png",
		"login_page_candidate_screenshot": "png",
		"idp_har":                         "har",
		"login_trace_har":                 "har",
		"login_trace_storage_state":       "json",
		"element_tree_markup":             "json",
		"metadata_data":                   "json",
		"sitemap":                         "json",
		"robots":                          "json",
	}
	for key, want := range cases {
		ext, ok := artifactExt(key)
		require.True(t, ok, key)
		assert.Equal(t, want, ext, key)
	}
	_, ok := artifactExt("domain")
	assert.False(t, ok)
}

func TestArtifactBucketNaming(t *testing.T) {
	assert.Equal(t, "login-page-candidate-screenshot", artifactBucket("login_page_candidate_screenshot"))
	assert.Equal(t, "idp-har", artifactBucket("idp_har"))
}

func TestOffloadSkipsExistingReferences(t *testing.T) {
	// Every artifact value already is a reference; the walk must not
	// need a blob store at all.
	d := &Dispatcher{}
	doc := map[string]interface{}{
		"domain": "example.com",
		"landscape_analysis_result": map[string]interface{}{
			"idp_screenshot": model.NewBlobReference("idp-screenshot", "example.com/x.png", "png"),
			"nested": []interface{}{
				map[string]interface{}{
					"metadata_data": model.NewBlobReference("metadata-data", "example.com/y.json", "json"),
				},
			},
		},
	}
	require.NoError(t, d.OffloadArtifacts(t.Context(), doc, "example.com"))
	result := doc["landscape_analysis_result"].(map[string]interface{})
	assert.True(t, model.IsBlobReference(result["idp_screenshot"]))
}

func TestOffloadKeepsUndecodableArtifactInline(t *testing.T) {
	d := &Dispatcher{}
	// A screenshot value that is not a string is left as-is instead of
	// being uploaded.
	value, err := d.offloadValue(t.Context(), "idp_screenshot", "png", "example.com", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestCollectBlobRefs(t *testing.T) {
	doc := map[string]interface{}{
		"a": model.NewBlobReference("idp-screenshot", "example.com/a.png", "png"),
		"b": []interface{}{
			map[string]interface{}{
				"c": model.NewBlobReference("idp-har", "example.com/b.har", "har"),
			},
		},
		"d": "plain",
	}
	refs := collectBlobRefs(doc)
	require.Len(t, refs, 2)
	buckets := []string{refs[0].BucketName, refs[1].BucketName}
	assert.ElementsMatch(t, []string{"idp-screenshot", "idp-har"}, buckets)
}

func TestNewestDocIndex(t *testing.T) {
	docs := []map[string]interface{}{
		{"task_config": map[string]interface{}{"task_timestamp_response_received": "2026-08-01T00:00:00Z"}},
		{"task_config": map[string]interface{}{"task_timestamp_response_received": "2026-08-02T00:00:00Z"}},
		{"task_config": map[string]interface{}{"task_timestamp_response_received": "2026-07-30T00:00:00Z"}},
	}
	assert.Equal(t, 1, newestDocIndex(docs))

	// no timestamps: keep the last inserted
	bare := []map[string]interface{}{{}, {}}
	assert.Equal(t, 1, newestDocIndex(bare))
}
