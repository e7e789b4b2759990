package rxcore

import (
	"testing"

	"github.com/coregx/rxcore/option"
)

func TestCompileEndToEnd(t *testing.T) {
	prog, err := Compile(`/(\w+)@(\w+)\.com/`, option.Default())
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if prog.CapSize != 3 {
		t.Errorf("CapSize = %d, want 3", prog.CapSize)
	}
}

func TestCompileSurfacesParseError(t *testing.T) {
	_, err := Compile(`/(a/`, option.Default())
	if err == nil {
		t.Fatal("expected an error for an unclosed group")
	}
	if _, ok := ErrorOffset(err); !ok {
		t.Error("ErrorOffset should report an offset for a parser error")
	}
	if IsInternal(err) {
		t.Error("a malformed-pattern error is not an internal error")
	}
}

func TestParseAndWriteSeparately(t *testing.T) {
	tree, err := Parse(`/a(b)c/`, option.Default())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	prog, err := Write(tree)
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if prog.CapSize != 2 {
		t.Errorf("CapSize = %d, want 2", prog.CapSize)
	}
}

func TestReTransformMatchesWritePipeline(t *testing.T) {
	tree, err := Parse(`/café/`, option.Default())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	transformed := ReTransform(tree.Root)
	if transformed == nil {
		t.Fatal("ReTransform returned nil")
	}
}

func TestErrorOffsetFalseForNonParserError(t *testing.T) {
	if _, ok := ErrorOffset(nil); ok {
		t.Error("ErrorOffset(nil) should report false")
	}
}
