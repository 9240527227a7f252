package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HTTPPort != "8086" {
		t.Errorf("HTTPPort = %s, want 8086", cfg.HTTPPort)
	}
	if cfg.SegmentPacing != 200*time.Millisecond {
		t.Errorf("SegmentPacing = %v, want 200ms", cfg.SegmentPacing)
	}
	if cfg.CharCap != 300 || cfg.FrameRate != 24 {
		t.Errorf("unexpected render defaults: cap %d fps %d", cfg.CharCap, cfg.FrameRate)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DOMAIN", "narrador.example, www.narrador.example")
	t.Setenv("SEGMENT_GROUPING", "true")
	t.Setenv("TTS_BASE_DELAY_MS", "250")
	t.Setenv("ELEVENLABS_VOICE_IDS", "es-ES-Standard-A=abc, es-ES-Standard-B = def,broken")
	t.Setenv("FRAME_RATE", "not-a-number")

	cfg := Load()
	if len(cfg.Domains) != 2 || cfg.Domains[1] != "www.narrador.example" {
		t.Errorf("unexpected domains %v", cfg.Domains)
	}
	if !cfg.Grouping {
		t.Error("expected grouping enabled")
	}
	if cfg.TTSBaseDelay != 250*time.Millisecond {
		t.Errorf("TTSBaseDelay = %v", cfg.TTSBaseDelay)
	}
	if cfg.ElevenLabsVoiceIDs["es-ES-Standard-B"] != "def" || len(cfg.ElevenLabsVoiceIDs) != 2 {
		t.Errorf("unexpected voice ids %v", cfg.ElevenLabsVoiceIDs)
	}
	if cfg.FrameRate != 24 {
		t.Errorf("invalid FRAME_RATE should fall back, got %d", cfg.FrameRate)
	}
}
