package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestViperConfigGetString(t *testing.T) {
	v := viper.New()
	v.Set("name", "test")
	cfg := New(v)

	if got := cfg.GetString("name"); got != "test" {
		t.Errorf("GetString('name') = %q, want %q", got, "test")
	}
}

func TestViperConfigGetInt(t *testing.T) {
	v := viper.New()
	v.Set("port", 8080)
	cfg := New(v)

	if got := cfg.GetInt("port"); got != 8080 {
		t.Errorf("GetInt('port') = %d, want %d", got, 8080)
	}
}

func TestViperConfigGetStringMap(t *testing.T) {
	v := viper.New()
	v.Set("enabled.net", false)
	v.Set("enabled.cpu", true)
	cfg := New(v)

	got := cfg.GetStringMap("enabled")
	if got["net"] != false || got["cpu"] != true {
		t.Errorf("GetStringMap('enabled') = %v, want net=false cpu=true", got)
	}
}

func TestViperConfigGetDuration(t *testing.T) {
	v := viper.New()
	v.Set("timeout", "5s")
	cfg := New(v)

	want := 5 * time.Second
	if got := cfg.GetDuration("timeout"); got != want {
		t.Errorf("GetDuration('timeout') = %v, want %v", got, want)
	}
}

func TestViperConfigSub(t *testing.T) {
	v := viper.New()
	v.Set("metlog.mqtt.qos", 2)
	v.Set("metlog.mqtt.timeout", "3s")
	cfg := New(v)

	sub := cfg.Sub("metlog.mqtt")
	if sub == nil {
		t.Fatal("Sub('metlog.mqtt') = nil")
	}
	if got := sub.GetInt("qos"); got != 2 {
		t.Errorf("sub.GetInt('qos') = %d, want %d", got, 2)
	}
	if got := sub.GetDuration("timeout"); got != 3*time.Second {
		t.Errorf("sub.GetDuration('timeout') = %v, want %v", got, 3*time.Second)
	}
}

func TestViperConfigSubMissing(t *testing.T) {
	v := viper.New()
	cfg := New(v)

	sub := cfg.Sub("nonexistent")
	if sub == nil {
		t.Fatal("Sub('nonexistent') should return empty Config, not nil")
	}
	// Should return zero values without panic.
	if got := cfg.GetString("anything"); got != "" {
		t.Errorf("empty config GetString() = %q, want empty", got)
	}
	_ = sub
}

func TestViperConfigUnmarshal(t *testing.T) {
	v := viper.New()
	v.Set("host", "localhost")
	v.Set("port", 9090)
	cfg := New(v)

	var target struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	}
	if err := cfg.Unmarshal(&target); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if target.Host != "localhost" {
		t.Errorf("Host = %q, want %q", target.Host, "localhost")
	}
	if target.Port != 9090 {
		t.Errorf("Port = %d, want %d", target.Port, 9090)
	}
}

func TestNilViper(t *testing.T) {
	cfg := New(nil)
	// Should not panic and return zero values.
	if got := cfg.GetString("key"); got != "" {
		t.Errorf("nil viper GetString() = %q, want empty", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	v, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg := New(v)
	if got := cfg.GetDuration("procinfo.timeout"); got != 30*time.Second {
		t.Errorf("procinfo.timeout = %v, want 30s", got)
	}
	if got := cfg.GetString("metlog.sender"); got != "zap" {
		t.Errorf("metlog.sender = %q, want zap", got)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procinfo.yaml")
	content := []byte(`
metlog:
  logger: web
procinfo:
  timeout: 2s
  enabled:
    net: false
    cpu: true
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	v, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg := New(v)
	if got := cfg.GetString("metlog.logger"); got != "web" {
		t.Errorf("metlog.logger = %q, want web", got)
	}
	if got := cfg.GetDuration("procinfo.timeout"); got != 2*time.Second {
		t.Errorf("procinfo.timeout = %v, want 2s", got)
	}
	enabled := cfg.Sub("procinfo").GetStringMap("enabled")
	if len(enabled) != 2 {
		t.Errorf("procinfo.enabled = %v, want 2 entries", enabled)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PROCINFO_PROCINFO_TIMEOUT", "750ms")
	v, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := New(v).GetDuration("procinfo.timeout"); got != 750*time.Millisecond {
		t.Errorf("procinfo.timeout = %v, want 750ms", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() of a missing file should fail")
	}
}
