// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

// Resolved records the outcome of reachability resolution for a domain or
// a single candidate URL.
type Resolved struct {
	Reachable bool   `json:"reachable" bson:"reachable"`
	Domain    string `json:"domain,omitempty" bson:"domain,omitempty"`
	URL       string `json:"url,omitempty" bson:"url,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty" bson:"error_msg,omitempty"`
	// ErrorReason is the typed unreachability reason
	// (TIMEOUT, DNS, RESET, PAGE_CRASH, EMPTY_RESPONSE,
	// ADDRESS_UNREACHABLE, STATUS_CODE, OTHER).
	ErrorReason string `json:"error_reason,omitempty" bson:"error_reason,omitempty"`
	StatusCode  int    `json:"status_code,omitempty" bson:"status_code,omitempty"`
}

// LoginPagePriority scores a candidate; priority descends in the final
// candidate ordering.
type LoginPagePriority struct {
	Regex    string `json:"regex" bson:"regex"`
	Priority int    `json:"priority" bson:"priority"`
}

// LoginPageCandidate is a URL proposed by one discovery strategy.
// Candidates are de-duplicated by normalized URL; the first-seen
// strategy/priority is kept.
type LoginPageCandidate struct {
	LoginPageCandidate string                 `json:"login_page_candidate" bson:"login_page_candidate"`
	Strategy           string                 `json:"login_page_strategy" bson:"login_page_strategy"`
	Priority           LoginPagePriority      `json:"login_page_priority" bson:"login_page_priority"`
	Resolved           *Resolved              `json:"resolved,omitempty" bson:"resolved,omitempty"`
	Info               map[string]interface{} `json:"login_page_info,omitempty" bson:"login_page_info,omitempty"`
	Screenshot         interface{}            `json:"login_page_candidate_screenshot,omitempty" bson:"login_page_candidate_screenshot,omitempty"`
}

// AuthenticationMechanisms groups per-candidate detector outputs.
type AuthenticationMechanisms struct {
	Passkey  []PasskeyDetection  `json:"passkey" bson:"passkey"`
	MFA      []MFADetection      `json:"mfa" bson:"mfa"`
	Password []PasswordDetection `json:"password" bson:"password"`
}

// TaskResult is the single document a worker produces per task.
type TaskResult struct {
	Resolved                 Resolved                    `json:"resolved" bson:"resolved"`
	Timings                  map[string]float64          `json:"timings,omitempty" bson:"timings,omitempty"`
	LoginPageCandidates      []LoginPageCandidate        `json:"login_page_candidates,omitempty" bson:"login_page_candidates,omitempty"`
	AuthenticationMechanisms *AuthenticationMechanisms   `json:"authentication_mechanisms,omitempty" bson:"authentication_mechanisms,omitempty"`
	IdentityProviders        []IdentityProviderDetection `json:"identity_providers,omitempty" bson:"identity_providers,omitempty"`
	MetadataAvailable        map[string]bool             `json:"metadata_available,omitempty" bson:"metadata_available,omitempty"`
	MetadataData             map[string]interface{}      `json:"metadata_data,omitempty" bson:"metadata_data,omitempty"`
	Error                    string                      `json:"error,omitempty" bson:"error,omitempty"`
	Exception                string                      `json:"exception,omitempty" bson:"exception,omitempty"`
}

// CandidateURLs returns the set of candidate URLs, used to check the
// invariant that every detection's login_page_url appears as a candidate.
func (r *TaskResult) CandidateURLs() map[string]bool {
	urls := make(map[string]bool, len(r.LoginPageCandidates))
	for _, c := range r.LoginPageCandidates {
		urls[c.LoginPageCandidate] = true
	}
	return urls
}

// BlobReference replaces an inlined binary payload in a stored result.
type BlobReference struct {
	Type string            `json:"type" bson:"type"`
	Data BlobReferenceData `json:"data" bson:"data"`
}

type BlobReferenceData struct {
	BucketName string `json:"bucket_name" bson:"bucket_name"`
	ObjectName string `json:"object_name" bson:"object_name"`
	Extension  string `json:"extension" bson:"extension"`
}

const BlobReferenceType = "reference"

// NewBlobReference builds the typed pointer stored in place of a payload.
func NewBlobReference(bucket, object, extension string) map[string]interface{} {
	return map[string]interface{}{
		"type": BlobReferenceType,
		"data": map[string]interface{}{
			"bucket_name": bucket,
			"object_name": object,
			"extension":   extension,
		},
	}
}

// IsBlobReference reports whether a decoded JSON value already is a blob
// reference, which makes offload idempotent.
func IsBlobReference(v interface{}) bool {
	m, ok := v.(map[string]interface{})
	if !ok {
		return false
	}
	t, ok := m["type"].(string)
	return ok && t == BlobReferenceType
}
