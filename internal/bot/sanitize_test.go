package bot

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "/new 跑步", "/new 跑步"},
		{"trims", "  跑步 \n", "跑步"},
		{"full width", "／ｎｅｗ\u3000跑步", "/new 跑步"},
		{"full width digits", "２ week", "2 week"},
		{"collapses newlines", "1\r\n\n week", "1 week"},
		{"collapses spaces", "1    week", "1 week"},
		{"tabs", "跑\t\t步", "跑 步"},
		{"zero width", "跑\u200b步\ufeff", "跑步"},
		{"zero width between spaces", "1 \u200d week", "1 week"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
