package negotiate

import (
	"errors"
	"testing"

	"github.com/danmuck/sv2setup/internal/protocol/codec"
	"github.com/danmuck/sv2setup/internal/protocol/setup"
	"github.com/danmuck/sv2setup/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

func miningRequest(t *testing.T, minVersion, maxVersion uint16, flags uint32) setup.SetupConnection {
	t.Helper()
	req, err := setup.NewSetupConnection(setup.ProtocolMining, minVersion, maxVersion, flags,
		setup.Endpoint{Host: "pool.example.net", Port: 34254},
		setup.Device{Vendor: "bitmain", HardwareVersion: "S19", Firmware: "braiins-os", DeviceID: "rig-7"},
	)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return req
}

func newResponder(t *testing.T, policy Policy) *Responder {
	t.Helper()
	r, err := NewResponder(policy)
	if err != nil {
		t.Fatalf("new responder: %v", err)
	}
	return r
}

func requireError(t *testing.T, resp Response, flags uint32, code string) {
	t.Helper()
	if resp.Accepted() || resp.Error == nil {
		t.Fatalf("expected rejection, got %+v", resp)
	}
	want := setup.SetupConnectionError{Flags: flags, ErrorCode: codec.MustStr0255(code)}
	if diff := cmp.Diff(want, *resp.Error); diff != "" {
		t.Fatalf("rejection mismatch (-want +got):\n%s", diff)
	}
}

func TestRespondAcceptsHighestCommonVersion(t *testing.T) {
	testlog.Start(t)
	r := newResponder(t, Policy{setup.ProtocolMining: {MinVersion: 2, MaxVersion: 3}})

	resp := r.Respond(miningRequest(t, 1, 5, 0))
	if !resp.Accepted() {
		t.Fatalf("expected success, got %+v", resp.Error)
	}
	if *resp.Success != (setup.SetupConnectionSuccess{UsedVersion: 3}) {
		t.Fatalf("unexpected success: %+v", *resp.Success)
	}
	msgType, body := resp.Encode()
	if msgType != setup.MsgTypeSetupConnectionSuccess {
		t.Fatalf("unexpected msg type: %d", msgType)
	}
	decoded, err := setup.DecodeSetupConnectionSuccess(body)
	if err != nil || decoded.UsedVersion != 3 {
		t.Fatalf("decode success: %+v %v", decoded, err)
	}
}

func TestRespondUnsupportedProtocol(t *testing.T) {
	testlog.Start(t)
	r := newResponder(t, Policy{setup.ProtocolTemplateDistribution: {MinVersion: 2, MaxVersion: 2}})
	requireError(t, r.Respond(miningRequest(t, 2, 2, 0)), 0, setup.ErrorCodeUnsupportedProtocol)
}

func TestRespondVersionMismatch(t *testing.T) {
	testlog.Start(t)
	r := newResponder(t, Policy{setup.ProtocolMining: {MinVersion: 6, MaxVersion: 6}})
	requireError(t, r.Respond(miningRequest(t, 1, 4, 0)), 0, setup.ErrorCodeProtocolVersionMismatch)
}

func TestRespondUnsupportedFlagsEchoesMissingBits(t *testing.T) {
	testlog.Start(t)
	r := newResponder(t, Policy{setup.ProtocolMining: {
		MinVersion: 2,
		MaxVersion: 2,
		Flags:      setup.FlagRequiresVersionRolling | setup.FlagRequiresWorkSelection,
	}})
	requireError(t, r.Respond(miningRequest(t, 2, 2, setup.FlagRequiresVersionRolling)),
		setup.FlagRequiresWorkSelection, setup.ErrorCodeUnsupportedFeatureFlags)

	resp := r.Respond(miningRequest(t, 2, 2, setup.FlagRequiresVersionRolling|setup.FlagRequiresWorkSelection))
	if !resp.Accepted() {
		t.Fatalf("expected acceptance when peer asserts every required flag: %+v", resp.Error)
	}
}

func TestRespondFlagsWithoutPolicyAreRejected(t *testing.T) {
	testlog.Start(t)
	r := newResponder(t, Policy{setup.ProtocolJobDeclaration: {MinVersion: 2, MaxVersion: 2}})
	req := miningRequest(t, 2, 2, 0b1)
	req.Protocol = setup.ProtocolJobDeclaration
	requireError(t, r.Respond(req), 0b1, setup.ErrorCodeUnsupportedFeatureFlags)

	req.Flags = 0
	if resp := r.Respond(req); !resp.Accepted() {
		t.Fatalf("expected acceptance with no flags: %+v", resp.Error)
	}
}

func TestRespondBodyUnknownProtocolByte(t *testing.T) {
	testlog.Start(t)
	r := newResponder(t, Policy{setup.ProtocolMining: {MinVersion: 2, MaxVersion: 2}})
	body := setup.EncodeSetupConnection(miningRequest(t, 2, 2, 0))
	body[0] = 0x42
	resp, err := r.RespondBody(body)
	if err != nil {
		t.Fatalf("respond body: %v", err)
	}
	requireError(t, resp, 0, setup.ErrorCodeUnsupportedProtocol)

	short := setup.EncodeSetupConnection(miningRequest(t, 2, 2, 0))[:3]
	if _, err := r.RespondBody(short); !errors.Is(err, codec.ErrShortBuffer) {
		t.Fatalf("expected ErrShortBuffer, got %v", err)
	}
}

func TestNewResponderRejectsBadPolicy(t *testing.T) {
	if _, err := NewResponder(Policy{}); err == nil {
		t.Fatalf("expected empty policy to fail")
	}
	if _, err := NewResponder(Policy{setup.ProtocolMining: {MinVersion: 3, MaxVersion: 2}}); err == nil {
		t.Fatalf("expected reversed range to fail")
	}
	if _, err := NewResponder(Policy{setup.Protocol(7): {MinVersion: 2, MaxVersion: 2}}); !errors.Is(err, setup.ErrInvalidProtocolCode) {
		t.Fatalf("expected ErrInvalidProtocolCode, got %v", err)
	}
}

func TestInitiatorResponderExchange(t *testing.T) {
	testlog.Start(t)
	initiator, err := NewInitiator(miningRequest(t, 2, 4, setup.FlagRequiresVersionRolling))
	if err != nil {
		t.Fatalf("new initiator: %v", err)
	}
	r := newResponder(t, Policy{setup.ProtocolMining: {MinVersion: 1, MaxVersion: 3, Flags: setup.FlagRequiresVersionRolling}})

	msgType, body := initiator.EncodeRequest()
	if msgType != setup.MsgTypeSetupConnection {
		t.Fatalf("unexpected request type: %d", msgType)
	}
	resp, err := r.RespondBody(body)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	respType, respBody := resp.Encode()
	session, err := initiator.HandleResponse(respType, respBody)
	if err != nil {
		t.Fatalf("handle response: %v", err)
	}
	want := Session{Protocol: setup.ProtocolMining, Version: 3, Flags: setup.FlagRequiresVersionRolling}
	if session != want {
		t.Fatalf("session mismatch: got=%+v want=%+v", session, want)
	}
}

func TestInitiatorSurfacesRejection(t *testing.T) {
	testlog.Start(t)
	initiator, err := NewInitiator(miningRequest(t, 2, 2, 0))
	if err != nil {
		t.Fatalf("new initiator: %v", err)
	}
	rejection := setup.SetupConnectionError{Flags: 0b100, ErrorCode: codec.MustStr0255(setup.ErrorCodeUnsupportedFeatureFlags)}
	_, err = initiator.HandleResponse(setup.MsgTypeSetupConnectionError, setup.EncodeSetupConnectionError(rejection))
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rejected.Flags != 0b100 || rejected.Code != setup.ErrorCodeUnsupportedFeatureFlags {
		t.Fatalf("unexpected rejection: %+v", rejected)
	}
}

func TestInitiatorRejectsVersionOutsideOffer(t *testing.T) {
	testlog.Start(t)
	initiator, err := NewInitiator(miningRequest(t, 2, 3, 0))
	if err != nil {
		t.Fatalf("new initiator: %v", err)
	}
	body := setup.EncodeSetupConnectionSuccess(setup.SetupConnectionSuccess{UsedVersion: 9})
	if _, err := initiator.HandleResponse(setup.MsgTypeSetupConnectionSuccess, body); !errors.Is(err, ErrVersionOutOfRange) {
		t.Fatalf("expected ErrVersionOutOfRange, got %v", err)
	}
	if _, err := initiator.HandleResponse(setup.MsgTypeSetupConnection, nil); !errors.Is(err, setup.ErrUnknownMessageType) {
		t.Fatalf("expected ErrUnknownMessageType, got %v", err)
	}
}

func TestNewInitiatorRequiresVendor(t *testing.T) {
	req := miningRequest(t, 2, 2, 0)
	req.Vendor = codec.Str0255{}
	if _, err := NewInitiator(req); !errors.Is(err, setup.ErrInvalidSetupConnection) {
		t.Fatalf("expected ErrInvalidSetupConnection, got %v", err)
	}
}

func TestNewInitiatorDetachesFromCallerBuffers(t *testing.T) {
	host := []byte("pool.example.net")
	req := miningRequest(t, 2, 2, 0)
	view, err := codec.NewStr0255(host)
	if err != nil {
		t.Fatalf("str: %v", err)
	}
	req.EndpointHost = view
	initiator, err := NewInitiator(req)
	if err != nil {
		t.Fatalf("new initiator: %v", err)
	}
	host[0] = 'X'
	if initiator.Request().EndpointHost.String() != "pool.example.net" {
		t.Fatalf("initiator request aliases caller buffer: %q", initiator.Request().EndpointHost.String())
	}
}
