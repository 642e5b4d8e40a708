// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package passkey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socsys/fidentikit/pkg/model"
)

func TestEvaluateAPIGate(t *testing.T) {
	sig := &Signals{
		URL:          "https://example.com/login",
		APIAvailable: false,
		BodyText:     "sign in with your passkey",
	}
	det := Evaluate(sig)
	assert.False(t, det.Detected)
	assert.False(t, det.WebauthnAPIAvailable)
	assert.Empty(t, det.DetectionMethods)
}

func TestEvaluateUIButton(t *testing.T) {
	sig := &Signals{
		URL:          "https://example.com/login",
		APIAvailable: true,
		Buttons: []UIButton{
			{Text: "sign in with google", Visible: true},
			{Text: "sign in with a passkey", Visible: true,
				Element: model.Element{X: 10, Y: 20, Width: 100, Height: 30, InnerText: "Sign in with a passkey"}},
		},
	}
	det := Evaluate(sig)
	assert.True(t, det.Detected)
	assert.Equal(t, model.ConfidenceHigh, det.Confidence)
	assert.Contains(t, det.DetectionMethods, model.PasskeyMethodUI)
	require.NotNil(t, det.Element)
	assert.Equal(t, 10.0, det.Element.X)
}

func TestEvaluateUIFiltersSSOButtons(t *testing.T) {
	sig := &Signals{
		URL:          "https://example.com/login",
		APIAvailable: true,
		Buttons: []UIButton{
			// Mentions fingerprint but is a third-party SSO button.
			{Text: "use fingerprint with google", Visible: true},
			{Text: "passkey", Visible: false},
		},
	}
	det := Evaluate(sig)
	assert.NotContains(t, det.DetectionMethods, model.PasskeyMethodUI)
}

func TestEvaluateJSStrongCeremony(t *testing.T) {
	res := evaluateJS(`const cred = await navigator.credentials.get({ publickey: options });`)
	require.NotNil(t, res)
	assert.Equal(t, model.ConfidenceHigh, res.confidence)
	assert.Contains(t, res.indicators, "js:webauthn_ceremony")
}

func TestEvaluateJSCeremonyWithVerboseOptions(t *testing.T) {
	// Real sites put a wall of options between the opening brace and the
	// publicKey field; the ceremony pattern has to span it.
	filler := strings.Repeat("mediation: 'optional', ", 30)
	res := evaluateJS(`navigator.credentials.get({` + filler + `publickey: {challenge: c, rpid: 'passkeys.test'}})`)
	require.NotNil(t, res)
	assert.Contains(t, res.indicators, "js:webauthn_ceremony")
	assert.Equal(t, model.ConfidenceHigh, res.confidence)
}

func TestEvaluateJSCapabilityCheck(t *testing.T) {
	res := evaluateJS(`if (window.publickeycredential && publickeycredential.isuserverifyingplatformauthenticatoravailable) {}`)
	require.NotNil(t, res)
	assert.Equal(t, model.ConfidenceHigh, res.confidence)
}

func TestEvaluateJSWeakReference(t *testing.T) {
	res := evaluateJS(`// todo: add webauthn support later`)
	require.NotNil(t, res)
	assert.Equal(t, model.ConfidenceMedium, res.confidence)
	assert.Equal(t, []string{"js:weak_reference"}, res.indicators)

	assert.Nil(t, evaluateJS(`console.log('hello');`))
}

func TestEvaluateJSKnownLibrary(t *testing.T) {
	res := evaluateJS(`import { startregistration( } from '@simplewebauthn/browser';`)
	require.NotNil(t, res)
	assert.Equal(t, model.ConfidenceHigh, res.confidence)
}

func TestEvaluateKeywordAuthContextBoost(t *testing.T) {
	sig := &Signals{
		URL:          "https://example.com/help",
		APIAvailable: true,
		BodyText:     "you can now use a passkey",
	}
	det := Evaluate(sig)
	// Keyword alone without auth context stays LOW, not detected.
	assert.False(t, det.Detected)
	assert.Equal(t, model.ConfidenceLow, det.Confidence)

	sig.BodyText = "sign in to your account using a passkey"
	det = Evaluate(sig)
	assert.True(t, det.Detected)
	assert.Equal(t, model.ConfidenceMedium, det.Confidence)
	assert.Contains(t, det.DetectionMethods, model.PasskeyMethodKeyword)
}

func TestEvaluateEnterprise(t *testing.T) {
	sig := &Signals{
		URL:          "https://login.microsoft.com/common/oauth2",
		APIAvailable: true,
		BodyText:     "sign in with windows hello or a security key",
	}
	det := Evaluate(sig)
	assert.True(t, det.Detected)
	assert.Equal(t, model.ConfidenceHigh, det.Confidence)
	assert.Contains(t, det.DetectionMethods, model.PasskeyMethodEnterprise)

	// Same wording on an unrelated domain does not trigger the layer,
	// though the UI/keyword layers may still see it.
	sig.URL = "https://example.org/login"
	det = Evaluate(sig)
	assert.NotContains(t, det.DetectionMethods, model.PasskeyMethodEnterprise)
}

func TestEvaluateConfidenceIsMaxAcrossLayers(t *testing.T) {
	sig := &Signals{
		URL:            "https://example.com/login",
		APIAvailable:   true,
		BodyText:       "sign in with your passkey",
		ScriptText:     "webauthn helper pending",
		DataAttributes: []string{"data-passkey"},
	}
	det := Evaluate(sig)
	assert.True(t, det.Detected)
	assert.Equal(t, model.ConfidenceMedium, det.Confidence)
	assert.ElementsMatch(t, det.DetectionMethods,
		[]string{model.PasskeyMethodUI, model.PasskeyMethodJS, model.PasskeyMethodKeyword})
}

func TestEvaluateCredentialInput(t *testing.T) {
	sig := &Signals{
		URL:              "https://example.com/login",
		APIAvailable:     true,
		CredentialInputs: []string{"autocomplete_webauthn"},
	}
	det := Evaluate(sig)
	assert.True(t, det.Detected)
	assert.Equal(t, model.ConfidenceHigh, det.Confidence)
	assert.Contains(t, det.Indicators, "input:autocomplete_webauthn")
}
