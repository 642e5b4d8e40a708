// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package idp

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/socsys/fidentikit/pkg/model"
)

// signInTokens mark a sign-in context in element text; their presence
// overrides the social-link rejection.
var signInTokens = []string{
	"sign in", "signin", "log in", "login", "sign up", "signup",
	"continue with", "connect with", "auth",
}

// isSocialLink rejects elements that look like footer-style social
// media links rather than SSO buttons: anchors opening a new tab with
// rel=noopener and no sign-in wording.
func isSocialLink(el model.Element) bool {
	if el.OuterHTML == "" {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(el.OuterHTML))
	if err != nil {
		return false
	}
	anchor := doc.Find("a").First()
	if anchor.Length() == 0 {
		return false
	}
	target, _ := anchor.Attr("target")
	rel, _ := anchor.Attr("rel")
	if target != "_blank" || !strings.Contains(strings.ToLower(rel), "noopener") {
		return false
	}
	text := strings.ToLower(el.InnerText + " " + anchor.Text())
	for _, token := range signInTokens {
		if strings.Contains(text, token) {
			return false
		}
	}
	return true
}
