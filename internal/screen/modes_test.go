package screen

import "testing"

func TestScanModesSGRMouse(t *testing.T) {
	var m modeState
	scanModes([]byte("\x1b[?1002h\x1b[?1006h"), &m)
	if m.mouseMode != MouseReportButton {
		t.Fatalf("mouseMode = %v, want MouseReportButton", m.mouseMode)
	}
	if m.mouseFormat != MouseFormatSGR {
		t.Fatalf("mouseFormat = %v, want MouseFormatSGR", m.mouseFormat)
	}
}

func TestScanModesMouseDisable(t *testing.T) {
	var m modeState
	scanModes([]byte("\x1b[?1000h"), &m)
	scanModes([]byte("\x1b[?1000l"), &m)
	if m.mouseMode != MouseReportNone {
		t.Fatalf("mouseMode = %v, want MouseReportNone", m.mouseMode)
	}
}

func TestScanModesBracketedPaste(t *testing.T) {
	var m modeState
	scanModes([]byte("\x1b[?2004h"), &m)
	if !m.bracketed {
		t.Fatal("expected bracketed paste enabled")
	}
	scanModes([]byte("\x1b[?2004l"), &m)
	if m.bracketed {
		t.Fatal("expected bracketed paste disabled")
	}
}

func TestScanModesKittyPushSetPop(t *testing.T) {
	var m modeState
	scanModes([]byte("\x1b[>1u"), &m)
	if m.currentKitty() != KittyDisambiguate {
		t.Fatalf("after push, flags = %v", m.currentKitty())
	}
	scanModes([]byte("\x1b[=3;2u"), &m) // OR in flag 3 (Disambiguate|ReportEvents)
	if m.currentKitty()&KittyReportEvents == 0 {
		t.Fatalf("expected ReportEvents set after OR, got %v", m.currentKitty())
	}
	scanModes([]byte("\x1b[<u"), &m)
	if m.currentKitty() != 0 {
		t.Fatalf("after pop, expected empty stack, got %v", m.currentKitty())
	}
}
