package render

import (
	"context"
	"os"
	"strings"
	"testing"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}

func TestExtractSource(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "markers present",
			in:   "Here is the diagram:\n@startuml\nclass Vehicle\n@enduml\nHope this helps!",
			want: "@startuml\nclass Vehicle\n@enduml",
		},
		{
			name: "fenced without markers",
			in:   "```plantuml\nclass Vehicle\n```",
			want: "@startuml\nclass Vehicle\n@enduml",
		},
		{
			name: "bare content",
			in:   "class Vehicle",
			want: "@startuml\nclass Vehicle\n@enduml",
		},
		{
			name: "only start marker",
			in:   "@startuml\nclass Vehicle",
			want: "@startuml\nclass Vehicle\n@enduml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractSource(tt.in); got != tt.want {
				t.Errorf("ExtractSource:\ngot  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestVerify_MissingJar(t *testing.T) {
	p := NewPlantUML("/nonexistent/plantuml.jar")
	err := p.Verify(context.Background())
	if err == nil {
		t.Fatal("expected verify to fail for missing jar")
	}
	if !strings.Contains(err.Error(), "jar not found") {
		t.Errorf("error = %v, want jar-not-found detail", err)
	}
}

func TestRender_MissingSource(t *testing.T) {
	p := NewPlantUML("/nonexistent/plantuml.jar")
	if _, err := p.Render(context.Background(), "/no/such/diagram.puml"); err == nil {
		t.Fatal("expected render of missing source to fail")
	}
}

func TestCheckSyntax_StructuralChecks(t *testing.T) {
	dir := t.TempDir()
	p := NewPlantUML("/nonexistent/plantuml.jar")

	write := func(name, content string) string {
		t.Helper()
		path := dir + "/" + name
		if err := writeFile(path, content); err != nil {
			t.Fatal(err)
		}
		return path
	}

	if ok, detail := p.CheckSyntax(context.Background(), write("empty.puml", "  ")); ok || !strings.Contains(detail, "empty") {
		t.Errorf("empty file: ok=%v detail=%q", ok, detail)
	}
	if ok, detail := p.CheckSyntax(context.Background(), write("nostart.puml", "class A\n@enduml")); ok || !strings.Contains(detail, StartMarker) {
		t.Errorf("missing start: ok=%v detail=%q", ok, detail)
	}
	if ok, detail := p.CheckSyntax(context.Background(), write("noend.puml", "@startuml\nclass A")); ok || !strings.Contains(detail, EndMarker) {
		t.Errorf("missing end: ok=%v detail=%q", ok, detail)
	}
}
