package highlight

import "testing"

func TestStyleRegexExtractsAttributes(t *testing.T) {
	line := `.Identifier { color: #8080ff; font-weight: bold; }`
	m := styleRE.FindStringSubmatch(line)
	if m == nil {
		t.Fatalf("styleRE did not match %q", line)
	}
	if m[1] != "Identifier" {
		t.Errorf("name = %q, want Identifier", m[1])
	}
	if m[3] != "8080ff" {
		t.Errorf("fg hex = %q, want 8080ff", m[3])
	}
	if m[7] == "" {
		t.Errorf("expected bold group to match")
	}
}

func TestDecodeHTMLLineTranslatesEntitiesAndSpans(t *testing.T) {
	styles := []style{{name: "Identifier", fg: 4, bg: noColour}}
	line := `int &amp;x = <span class="Identifier">foo</span>(1 &lt; 2);`

	got, err := decodeHTMLLine(line, styles)
	if err != nil {
		t.Fatalf("decodeHTMLLine: %v", err)
	}

	want := "int &x = \033[34;49mfoo\033[0m(1 < 2);"
	if got != want {
		t.Errorf("decodeHTMLLine =\n%q\nwant\n%q", got, want)
	}
}

func TestDecodeTOhtmlSplitsStyleAndBody(t *testing.T) {
	doc := "<html>\n" +
		".Identifier { color: #00ff00; }\n" +
		"<pre id='vimCodeElement'>\n" +
		`<span class="Identifier">foo</span>` + "\n" +
		"</pre>\n"

	lines, err := decodeTOhtml([]byte(doc))
	if err != nil {
		t.Fatalf("decodeTOhtml: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 body line, got %+v", lines)
	}
	if lines[0] != "\033[32;49mfoo\033[0m" {
		t.Errorf("unexpected decoded line: %q", lines[0])
	}
}
