package minio

import (
	"context"
	"testing"

	appconfig "github.com/GoArmGo/Pereval/internal/config"
	"github.com/GoArmGo/Pereval/internal/logger"
)

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		endpoint string
		ssl      bool
		want     string
	}{
		{"localhost:9000", false, "http://localhost:9000"},
		{"minio.internal:9000", true, "https://minio.internal:9000"},
		{"https://s3.example.com/", false, "https://s3.example.com"},
	}
	for _, tt := range tests {
		if got := endpointURL(tt.endpoint, tt.ssl); got != tt.want {
			t.Errorf("endpointURL(%q, %v) = %q, ожидалось %q", tt.endpoint, tt.ssl, got, tt.want)
		}
	}
}

func TestObjectURL(t *testing.T) {
	got := objectURL("http://localhost:9000/", "pereval-archive", "perevals/1/e.json")
	if want := "http://localhost:9000/pereval-archive/perevals/1/e.json"; got != want {
		t.Errorf("objectURL = %q, ожидалось %q", got, want)
	}
}

func TestNewMinioClientRequiresConfig(t *testing.T) {
	cfg := &appconfig.Config{MinioBucketName: "pereval-archive"}
	if _, err := NewMinioClient(context.Background(), cfg, logger.Discard()); err == nil {
		t.Error("без параметров MinIO ожидалась ошибка")
	}
}
