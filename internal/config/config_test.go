package config

import "testing"

func TestS3ConfigIsConfigured(t *testing.T) {
	t.Run("empty config is not configured", func(t *testing.T) {
		cfg := S3Config{}
		if cfg.IsConfigured() {
			t.Fatal("expected IsConfigured=false for empty config")
		}
	})

	t.Run("required fields set is configured", func(t *testing.T) {
		cfg := S3Config{
			Endpoint:        "https://s3.example.com",
			Region:          "us-east-1",
			Bucket:          "bucket",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
		}
		if !cfg.IsConfigured() {
			t.Fatal("expected IsConfigured=true when all required fields are set")
		}
	})

	// The public base URL is optional: uploads fall back to presigned GETs.
	t.Run("public base URL is not required", func(t *testing.T) {
		cfg := S3Config{
			Endpoint:        "https://s3.example.com",
			Region:          "us-east-1",
			Bucket:          "bucket",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
			PublicBaseURL:   "",
		}
		if !cfg.IsConfigured() {
			t.Fatal("expected IsConfigured=true without a public base URL")
		}
	})
}

func TestS3ConfigMissingRequired(t *testing.T) {
	cfg := S3Config{
		Endpoint: "https://s3.example.com",
		Bucket:   "bucket",
	}
	missing := cfg.MissingRequired()

	want := []string{"S3_REGION", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY"}
	if len(missing) != len(want) {
		t.Fatalf("expected %d missing fields, got %d (%v)", len(want), len(missing), missing)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Errorf("missing[%d] = %q, want %q", i, missing[i], want[i])
		}
	}
}

func TestParseCORSOrigins(t *testing.T) {
	origins := parseCORSOrigins("https://a.example.com, https://b.example.com,", "prod")
	if len(origins) != 2 {
		t.Fatalf("expected 2 origins, got %v", origins)
	}

	if local := parseCORSOrigins("", "local"); len(local) != 1 || local[0] != "*" {
		t.Errorf("local default should be wildcard, got %v", local)
	}
	if prod := parseCORSOrigins("", "prod"); prod != nil {
		t.Errorf("prod default should be empty, got %v", prod)
	}
}
