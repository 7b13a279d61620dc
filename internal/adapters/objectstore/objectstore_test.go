package objectstore

import (
	"path/filepath"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{Endpoint: "localhost:9000", AccessKey: "lighthouse", SecretKey: "secret", Region: "us-east-1", Bucket: "artifacts"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("didn't want %q", err)
	}
	if !valid.Enabled() {
		t.Fatalf("want enabled")
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }},
		{"scheme in endpoint", func(c *Config) { c.Endpoint = "http://localhost:9000" }},
		{"missing access key", func(c *Config) { c.AccessKey = " " }},
		{"missing secret key", func(c *Config) { c.SecretKey = "" }},
		{"missing bucket", func(c *Config) { c.Bucket = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("want error")
			}
		})
	}

	if (Config{}).Enabled() {
		t.Fatalf("want disabled")
	}
}

func TestObjectKey(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "work", "app")

	tests := []struct {
		file string
		want string
	}{
		{filepath.Join(base, "target", "app.jar"), "b1/target/app.jar"},
		{filepath.Join(base, "app.jar"), "b1/app.jar"},
		{filepath.Join(string(filepath.Separator), "elsewhere", "lib.jar"), "b1/lib.jar"},
	}
	for _, tt := range tests {
		if got := objectKey("b1", base, tt.file); got != tt.want {
			t.Errorf("objectKey(%q): got %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestContentType(t *testing.T) {
	if got := contentType("app.JAR"); got != "application/java-archive" {
		t.Fatalf("got %q", got)
	}
	if got := contentType("app.bin"); got != "application/octet-stream" {
		t.Fatalf("got %q", got)
	}
}
