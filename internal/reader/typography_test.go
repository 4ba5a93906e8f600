package reader

import "testing"

func TestTypographySignature_ChangesWithSettings(t *testing.T) {
	content := "<p>chapter body</p>"
	base := DefaultTypography()
	sig := base.Signature(content)

	variants := []Typography{
		{FontScale: 1.2, LineSpacing: 1.0, Margin: 2},
		{FontScale: 1.0, LineSpacing: 1.5, Margin: 2},
		{FontScale: 1.0, LineSpacing: 1.0, Margin: 4},
		{FontScale: 1.0, LineSpacing: 1.0, Margin: 2, Dark: true},
	}
	for _, v := range variants {
		if v.Signature(content) == sig {
			t.Errorf("typography %+v produced the same signature as the default", v)
		}
	}
}

func TestTypographySignature_ChangesWithContent(t *testing.T) {
	typ := DefaultTypography()
	if typ.Signature("<p>one</p>") == typ.Signature("<p>two</p>") {
		t.Error("different content produced the same signature")
	}
}

func TestTypographySignature_Stable(t *testing.T) {
	typ := Typography{FontScale: 1.3, LineSpacing: 1.5, Margin: 4}
	a := typ.Signature("body")
	b := typ.Signature("body")
	if a != b {
		t.Errorf("same inputs produced %q and %q", a, b)
	}
}
