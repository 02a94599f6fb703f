package setup

import (
	"errors"
	"testing"

	"github.com/danmuck/sv2setup/internal/testutil/testlog"
)

func TestDecodeProtocolRoundTrip(t *testing.T) {
	testlog.Start(t)
	for _, p := range Protocols {
		got, err := DecodeProtocol(p.Code())
		if err != nil {
			t.Fatalf("decode %s: %v", p, err)
		}
		if got != p {
			t.Fatalf("round-trip mismatch: got=%s want=%s", got, p)
		}
	}
}

func TestDecodeProtocolRejectsUnknownCodes(t *testing.T) {
	testlog.Start(t)
	for code := 4; code <= 255; code++ {
		_, err := DecodeProtocol(byte(code))
		if !errors.Is(err, ErrInvalidProtocolCode) {
			t.Fatalf("code %d: expected ErrInvalidProtocolCode, got %v", code, err)
		}
	}
}

func TestProtocolCodesAreFixed(t *testing.T) {
	want := map[Protocol]byte{
		ProtocolMining:               0,
		ProtocolJobDeclaration:       1,
		ProtocolTemplateDistribution: 2,
		ProtocolJobDistribution:      3,
	}
	for p, code := range want {
		if p.Code() != code {
			t.Fatalf("%s: code=%d want %d", p, p.Code(), code)
		}
	}
}

func TestProtocolNames(t *testing.T) {
	for _, p := range Protocols {
		got, err := ParseProtocolName(p.ConfigName())
		if err != nil || got != p {
			t.Fatalf("ParseProtocolName(%q)=%v,%v", p.ConfigName(), got, err)
		}
	}
	if ProtocolTemplateDistribution.String() != "TemplateDistribution" {
		t.Fatalf("unexpected String: %q", ProtocolTemplateDistribution.String())
	}
	if Protocol(9).String() != "Protocol(9)" {
		t.Fatalf("unexpected String for unknown: %q", Protocol(9).String())
	}
	if _, err := ParseProtocolName("stratum-v1"); err == nil {
		t.Fatalf("expected unknown name to fail")
	}
}
