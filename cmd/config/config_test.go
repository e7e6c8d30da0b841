package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"

	"pulsecore/internal/testutil"
)

func TestLoadConfigDefault(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("")
	if AppConfig.Mesh.DiscoveryTag != "pulse-mesh" {
		t.Fatalf("unexpected discovery tag: %s", AppConfig.Mesh.DiscoveryTag)
	}
	if AppConfig.Routing.MaxHops != 7 {
		t.Fatalf("expected default max_hops 7, got %d", AppConfig.Routing.MaxHops)
	}
}

func TestLoadConfigOverride(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("bootstrap")
	if AppConfig.Routing.MaxHops != 3 {
		t.Fatalf("expected MaxHops 3, got %d", AppConfig.Routing.MaxHops)
	}
	if AppConfig.Mesh.DiscoveryTag != "pulse-bootstrap" {
		t.Fatalf("expected discovery tag override")
	}
}

func TestLoadConfigSandbox(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	if err := os.Mkdir(sb.Path("config"), 0700); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	data := []byte("mesh:\n  discovery_tag: sandbox\nrouting:\n  max_hops: 2\n")
	if err := sb.WriteFile("config/default.yaml", data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("")

	if AppConfig.Mesh.DiscoveryTag != "sandbox" {
		t.Fatalf("expected discovery tag sandbox, got %s", AppConfig.Mesh.DiscoveryTag)
	}
	if AppConfig.Routing.MaxHops != 2 {
		t.Fatalf("expected MaxHops 2, got %d", AppConfig.Routing.MaxHops)
	}
}
