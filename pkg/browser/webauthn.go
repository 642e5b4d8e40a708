// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package browser

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/chromedp/cdproto/webauthn"
	"github.com/chromedp/chromedp"

	"github.com/socsys/fidentikit/pkg/errors"
	"github.com/socsys/fidentikit/pkg/model"
)

// webauthnCaptureScript wraps navigator.credentials so the options
// passed to create/get are readable after the fact. The wrapped calls
// still reach the real implementation (and thus the virtual
// authenticator).
const webauthnCaptureScript = `(() => {
  if (window.__webauthn_capture) { return; }
  window.__webauthn_capture = { create_options: null, get_options: null };
  const b64 = (b) => {
    const bytes = b instanceof ArrayBuffer ? new Uint8Array(b) : new Uint8Array(b.buffer, b.byteOffset, b.byteLength);
    let s = '';
    for (let i = 0; i < bytes.length; i++) { s += String.fromCharCode(bytes[i]); }
    return btoa(s);
  };
  const serialize = (o) => {
    try {
      return JSON.parse(JSON.stringify(o, (k, v) => {
        if (v instanceof ArrayBuffer || ArrayBuffer.isView(v)) { return { __buffer: b64(v) }; }
        return v;
      }));
    } catch (e) { return { __error: String(e) }; }
  };
  if (navigator.credentials) {
    const origCreate = navigator.credentials.create.bind(navigator.credentials);
    navigator.credentials.create = (options) => {
      if (options && options.publicKey) {
        window.__webauthn_capture.create_options = serialize(options.publicKey);
      }
      return origCreate(options);
    };
    const origGet = navigator.credentials.get.bind(navigator.credentials);
    navigator.credentials.get = (options) => {
      if (options && options.publicKey) {
        window.__webauthn_capture.get_options = serialize(options.publicKey);
      }
      return origGet(options);
    };
  }
})();`

// WebAuthnSession is the instrumented WebAuthn environment on one page:
// a virtual platform authenticator plus buffered credential events.
type WebAuthnSession struct {
	page            *Page
	AuthenticatorID webauthn.AuthenticatorID

	mu     sync.Mutex
	events []map[string]interface{}
}

// InstrumentWebAuthn installs the capture script and attaches a virtual
// ctap2/internal authenticator with resident keys, user verification
// and automatic presence simulation, so passkey ceremonies complete
// without hardware.
func (p *Page) InstrumentWebAuthn() (*WebAuthnSession, error) {
	if err := p.AddInitScript(webauthnCaptureScript); err != nil {
		return nil, errors.NewError().WithCode(errors.CodeBrowserError).
			WithMessage("failed to install webauthn capture script").WithError(err)
	}
	s := &WebAuthnSession{page: p}
	chromedp.ListenTarget(p.Ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *webauthn.EventCredentialAdded:
			s.bufferEvent("credentialAdded", e.Credential)
		case *webauthn.EventCredentialAsserted:
			s.bufferEvent("credentialAsserted", e.Credential)
		}
	})
	err := chromedp.Run(p.Ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := webauthn.Enable().Do(ctx); err != nil {
			return err
		}
		id, err := webauthn.AddVirtualAuthenticator(&webauthn.VirtualAuthenticatorOptions{
			Protocol:                    webauthn.AuthenticatorProtocolCtap2,
			Transport:                   webauthn.AuthenticatorTransportInternal,
			HasResidentKey:              true,
			HasUserVerification:         true,
			IsUserVerified:              true,
			AutomaticPresenceSimulation: true,
		}).Do(ctx)
		if err != nil {
			return err
		}
		s.AuthenticatorID = id
		return nil
	}))
	if err != nil {
		return nil, errors.NewError().WithCode(errors.CodeBrowserError).
			WithMessage("failed to add virtual authenticator").WithError(err)
	}
	return s, nil
}

func (s *WebAuthnSession) bufferEvent(kind string, cred *webauthn.Credential) {
	entry := map[string]interface{}{"event": kind}
	if cred != nil {
		if raw, err := json.Marshal(cred); err == nil {
			var decoded map[string]interface{}
			if json.Unmarshal(raw, &decoded) == nil {
				entry["credential"] = decoded
			}
		}
	}
	s.mu.Lock()
	s.events = append(s.events, entry)
	s.mu.Unlock()
}

// Events returns the buffered credential events.
func (s *WebAuthnSession) Events() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]interface{}, len(s.events))
	copy(out, s.events)
	return out
}

// Credentials reads the credentials registered on the virtual
// authenticator.
func (s *WebAuthnSession) Credentials() ([]map[string]interface{}, error) {
	var creds []*webauthn.Credential
	err := chromedp.Run(s.page.Ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		creds, err = webauthn.GetCredentials(s.AuthenticatorID).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, errors.NewError().WithCode(errors.CodeBrowserError).
			WithMessage("failed to read virtual authenticator credentials").WithError(err)
	}
	out := make([]map[string]interface{}, 0, len(creds))
	for _, c := range creds {
		raw, err := json.Marshal(c)
		if err != nil {
			continue
		}
		var decoded map[string]interface{}
		if json.Unmarshal(raw, &decoded) == nil {
			out = append(out, decoded)
		}
	}
	return out, nil
}

// Capture reads back everything the instrumented page observed: the
// intercepted create/get options, the authenticator's credentials and
// the buffered events.
func (s *WebAuthnSession) Capture() *model.WebAuthnImplementation {
	impl := &model.WebAuthnImplementation{}
	var captured struct {
		CreateOptions map[string]interface{} `json:"create_options"`
		GetOptions    map[string]interface{} `json:"get_options"`
	}
	if err := s.page.Evaluate("window.__webauthn_capture || {}", &captured); err == nil {
		impl.CreateOptions = captured.CreateOptions
		impl.GetOptions = captured.GetOptions
	}
	if creds, err := s.Credentials(); err == nil {
		impl.Credentials = creds
	}
	impl.CdpEvents = s.Events()
	impl.Captured = impl.CreateOptions != nil || impl.GetOptions != nil ||
		len(impl.Credentials) > 0 || len(impl.CdpEvents) > 0
	return impl
}

// APIAvailable reports whether the page exposes the WebAuthn API in a
// secure context.
func (p *Page) APIAvailable() bool {
	var available bool
	err := p.Evaluate("typeof window.PublicKeyCredential !== 'undefined' && window.isSecureContext === true", &available)
	return err == nil && available
}
