package sf2

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDescribe(t *testing.T) {
	sf := sineBank(t)
	d := Describe(sf)

	if d.Name != "Test Bank" {
		t.Errorf("name: %q", d.Name)
	}
	if d.Version != "2.1" {
		t.Errorf("version: %q", d.Version)
	}
	if d.Samples != 1 {
		t.Errorf("samples: %d", d.Samples)
	}
	if len(d.Banks) != 1 || d.Banks[0].Num != 0 {
		t.Fatalf("banks: %+v", d.Banks)
	}
	p := d.Banks[0].Presets[0]
	if p.Name != "Sine Lead" || p.Program != 0 {
		t.Errorf("preset: %+v", p)
	}
	if len(p.Instruments) != 1 || p.Instruments[0] != "Sine" {
		t.Errorf("instruments: %v", p.Instruments)
	}
}

func TestDescribeMarshalsAsYAML(t *testing.T) {
	out, err := yaml.Marshal(Describe(sineBank(t)))
	if err != nil {
		t.Fatal(err)
	}
	text := string(out)
	for _, want := range []string{"name: Test Bank", "version: \"2.1\"", "program: 0", "Sine"} {
		if !strings.Contains(text, want) {
			t.Errorf("marshaled YAML missing %q:\n%s", want, text)
		}
	}
}
