package catalog

import "testing"

func TestParseCode(t *testing.T) {
	tests := []struct {
		in      string
		base    string
		isErr   bool
		wantErr bool
	}{
		{"000", "000", false, false},
		{"100", "100", false, false},
		{"399", "399", false, false},
		{"100E", "100", true, false},
		{"400E", "400", true, false},
		{"", "", false, true},
		{"1", "", false, true},
		{"10", "", false, true},
		{"1000", "", false, true},
		{"abc", "", false, true},
		{"10E", "", false, true},
		{"E", "", false, true},
	}

	for _, tt := range tests {
		c, err := ParseCode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCode(%q): expected error, got %v", tt.in, c)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCode(%q): %v", tt.in, err)
			continue
		}
		if c.Base != tt.base || c.Err != tt.isErr {
			t.Errorf("ParseCode(%q) = {%s %v}, want {%s %v}", tt.in, c.Base, c.Err, tt.base, tt.isErr)
		}
		if c.String() != tt.in {
			t.Errorf("ParseCode(%q).String() = %q", tt.in, c.String())
		}
	}
}

func TestCodeVariants(t *testing.T) {
	c := MustCode("200")
	if c.IsError() {
		t.Error("200 should not be an error variant")
	}
	e := c.ErrorVariant()
	if e.String() != "200E" || !e.IsError() {
		t.Errorf("ErrorVariant(200) = %s", e)
	}
	if e.MainLine().String() != "200" {
		t.Errorf("MainLine(200E) = %s", e.MainLine())
	}
	if e.ErrorVariant() != e {
		t.Error("ErrorVariant of an error variant should be unchanged")
	}
}
