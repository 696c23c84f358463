package services

import (
	"strings"
	"testing"
)

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"\n  \n", nil},
		{"ceo\nmanager", []string{"ceo", "manager"}},
		{"  ceo  \r\n\nlead engineer\n", []string{"ceo", "lead engineer"}},
	}
	for _, tt := range tests {
		got := ParseKeywords(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("ParseKeywords(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		set     bool
		wantErr bool
	}{
		{"", "", false, false},
		{"20240615", "20240615", true, false},
		{"2024-06-15", "20240615", true, false},
		{"2024/06/15", "", false, true},
		{"20241345", "", false, true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDate(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		v, ok := got.Get()
		if ok != tt.set || v != tt.want {
			t.Errorf("ParseDate(%q) = %q,%v; want %q,%v", tt.in, v, ok, tt.want, tt.set)
		}
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		set     bool
		wantErr bool
	}{
		{"", 0, false, false},
		{"0", 0, false, false},
		{"25", 25, true, false},
		{"-1", 0, false, true},
		{"ten", 0, false, true},
	}
	for _, tt := range tests {
		got, err := ParseLimit(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLimit(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		v, ok := got.Get()
		if ok != tt.set || v != tt.want {
			t.Errorf("ParseLimit(%q) = %d,%v; want %d,%v", tt.in, v, ok, tt.want, tt.set)
		}
	}
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest("  @jack ", "2020-01-01", "", "10", "ceo\n\nfounder")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Handle != "jack" {
		t.Errorf("Handle = %q; want jack", req.Handle)
	}
	if v, _ := req.FromDate.Get(); v != "20200101" {
		t.Errorf("FromDate = %q", v)
	}
	if req.ToDate.IsSet() {
		t.Error("ToDate should be absent")
	}
	if req.Limit.Or(0) != 10 {
		t.Errorf("Limit = %d; want 10", req.Limit.Or(0))
	}
	if len(req.Keywords) != 2 {
		t.Errorf("Keywords = %q", req.Keywords)
	}

	if _, err := NewRequest(" @ ", "", "", "", ""); err == nil {
		t.Error("expected an error for an empty handle")
	}
	if _, err := NewRequest("jack", "yesterday", "", "", ""); err == nil {
		t.Error("expected an error for a bad date")
	}
}
