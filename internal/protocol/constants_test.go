package protocol

import "testing"

func TestDisconnectReasonCloseCodes(t *testing.T) {
	for _, r := range []DisconnectReason{DisconnectInvalidProtocol, DisconnectInvalidPacket} {
		code := r.CloseCode()
		if code < 4000 || code > 4999 {
			t.Fatalf("%s: close code %d outside private range", r, code)
		}
		got, ok := ReasonFromCloseCode(code)
		if !ok || got != r {
			t.Fatalf("ReasonFromCloseCode(%d) = %s, %v; want %s", code, got, ok, r)
		}
	}
	for _, code := range []int{1000, 1013, 3999, 4002, 4256} {
		if _, ok := ReasonFromCloseCode(code); ok {
			t.Fatalf("expected code %d to be unmapped", code)
		}
	}
}

func TestDisconnectReasonString(t *testing.T) {
	if DisconnectInvalidProtocol.String() != "InvalidProtocol" || DisconnectInvalidPacket.String() != "InvalidPacket" {
		t.Fatalf("unexpected reason names")
	}
	if got := DisconnectReason(9).String(); got != "DisconnectReason(9)" {
		t.Fatalf("unexpected unknown reason name %q", got)
	}
}

func TestAimRangeIsOrdered(t *testing.T) {
	if !(AimMin < AimMax) {
		t.Fatalf("expected AimMin < AimMax")
	}
}
