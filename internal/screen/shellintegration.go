package screen

// scanShellIntegration looks for OSC 0/1/2 (title) and OSC 7 (cwd,
// "file://host/path") sequences in raw PTY output and updates title/cwd in
// place. vt10x's own grid interpretation has no hook for these (it only
// tracks cell contents and cursor state), so title/cwd extraction is done
// independently here, ahead of handing the bytes to the interpreter.
//
// Sequences: ESC ] Ps ; Pt (BEL | ESC \)
func scanShellIntegration(data []byte, title, cwd *string, titleChanged, cwdChanged *bool) {
	i := 0
	for i < len(data) {
		if data[i] != 0x1b || i+1 >= len(data) || data[i+1] != ']' {
			i++
			continue
		}
		start := i + 2
		j := start
		for j < len(data) && data[j] != ';' {
			j++
		}
		if j >= len(data) {
			break
		}
		ps := string(data[start:j])
		textStart := j + 1
		end, next := findOSCTerminator(data, textStart)
		if end < 0 {
			break
		}
		text := string(data[textStart:end])

		switch ps {
		case "0", "1", "2":
			if *title != text {
				*title = text
				*titleChanged = true
			}
		case "7":
			if path, ok := stripFileURI(text); ok && *cwd != path {
				*cwd = path
				*cwdChanged = true
			}
		}
		i = next
	}
}

// findOSCTerminator returns the index of the BEL/ST terminator and the
// index to resume scanning from after it, or (-1, 0) if not found.
func findOSCTerminator(data []byte, from int) (end, next int) {
	for k := from; k < len(data); k++ {
		if data[k] == 0x07 {
			return k, k + 1
		}
		if data[k] == 0x1b && k+1 < len(data) && data[k+1] == '\\' {
			return k, k + 2
		}
	}
	return -1, 0
}

// stripFileURI extracts the path component of a "file://host/path" OSC 7
// payload.
func stripFileURI(uri string) (string, bool) {
	const prefix = "file://"
	if len(uri) < len(prefix) || uri[:len(prefix)] != prefix {
		return "", false
	}
	rest := uri[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			return rest[i:], true
		}
	}
	return "", false
}
