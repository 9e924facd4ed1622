package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Units != "ft" {
		t.Errorf("expected ft, got %q", s.Units)
	}
	if s.Geometry.SearchDistance != 4.0 {
		t.Errorf("expected default search distance, got %v", s.Geometry.SearchDistance)
	}
	if s.Dimension.Offset != 3.0 {
		t.Errorf("expected default offset, got %v", s.Dimension.Offset)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s := Default()
	s.Units = "mm"
	s.Geometry.SearchDistance = 6.0
	s.Dimension.HalfLength = 8.0

	if err := Save(dir, s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Units != "mm" {
		t.Errorf("units lost: %q", got.Units)
	}
	if got.Geometry.SearchDistance != 6.0 {
		t.Errorf("search distance lost: %v", got.Geometry.SearchDistance)
	}
	if got.Dimension.HalfLength != 8.0 {
		t.Errorf("half length lost: %v", got.Dimension.HalfLength)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "[dimension]\noffset = 2.5\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Dimension.Offset != 2.5 {
		t.Errorf("override not applied: %v", s.Dimension.Offset)
	}
	if s.Dimension.HalfLength != 5.0 {
		t.Errorf("unrelated default lost: %v", s.Dimension.HalfLength)
	}
	if s.Geometry.EdgeTolerance != 0.1 {
		t.Errorf("unrelated section lost: %v", s.Geometry.EdgeTolerance)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	content := "units = \"cubits\"\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("expected error for unknown units")
	}
}

func TestParamConversion(t *testing.T) {
	s := Default()
	s.Geometry.PerpendicularMax = 0.2

	p := s.AdjacentParams()
	if p.PerpendicularMax != 0.2 {
		t.Errorf("PerpendicularMax not converted: %v", p.PerpendicularMax)
	}
	if p.EdgeTolerance != s.Geometry.EdgeTolerance {
		t.Errorf("EdgeTolerance not converted")
	}

	d := s.DimensionParams()
	if d.Offset != 3.0 || d.HalfLength != 5.0 {
		t.Errorf("dimension params not converted: %+v", d)
	}
}

func TestFormatLength(t *testing.T) {
	ft := Default()
	if got := ft.FormatLength(1.75); got != "1.75 ft" {
		t.Errorf("unexpected ft formatting: %q", got)
	}

	mm := Default()
	mm.Units = "mm"
	if got := mm.FormatLength(1.0); got != "305 mm" {
		t.Errorf("unexpected mm formatting: %q", got)
	}
}
