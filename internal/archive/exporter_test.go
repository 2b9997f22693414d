package archive

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		BucketName:      "airtime-archive",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        "https://storage.example.com",
	}
}

func TestNewExporterValidatesConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing bucket", func(c *Config) { c.BucketName = "" }},
		{"missing access key", func(c *Config) { c.AccessKeyID = "" }},
		{"missing secret", func(c *Config) { c.SecretAccessKey = "" }},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if _, err := NewExporter(cfg); err == nil {
				t.Error("expected a config validation error")
			}
		})
	}
}

func TestNewExporterWithValidConfig(t *testing.T) {
	exp, err := NewExporter(validConfig())
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	if exp == nil {
		t.Fatal("expected an exporter")
	}
}

func TestObjectKeyLayout(t *testing.T) {
	exp, err := NewExporter(validConfig())
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	exp.timeNow = func() time.Time {
		return time.Date(2025, time.October, 17, 12, 0, 0, 0, time.UTC)
	}

	got := exp.ObjectKey("chan-1")
	want := "archive/chan-1/1760702400000.cbor"
	if got != want {
		t.Errorf("ObjectKey = %q, want %q", got, want)
	}
}
