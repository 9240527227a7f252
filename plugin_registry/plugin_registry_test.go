package plugin_registry_test

import (
	"context"
	"testing"

	"github.com/serisow/narrador/plugin_registry"
	"github.com/serisow/narrador/speech"
)

type mockProvider struct{ name string }

func (p *mockProvider) Name() string { return p.name }

func (p *mockProvider) Synthesize(ctx context.Context, text string, voice speech.Voice) ([]byte, error) {
	return []byte(text), nil
}

type mockLibrary []string

func (m mockLibrary) ListClips(ctx context.Context, category string) ([]string, error) {
	return m, nil
}

func TestRegisterAndGetProvider(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()

	mock := &mockProvider{name: "mock_tts"}
	registry.RegisterProvider(mock)

	provider, err := registry.GetProvider("mock_tts")
	if err != nil {
		t.Fatalf("Expected to retrieve provider, got error: %v", err)
	}
	if provider != mock {
		t.Errorf("Expected retrieved provider to be the same as registered provider")
	}
}

func TestGetUnregisteredProvider(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()

	_, err := registry.GetProvider("unknown_tts")
	if err == nil {
		t.Fatal("Expected error when retrieving unregistered provider, got nil")
	}

	expectedErrorMsg := "unknown speech provider: unknown_tts"
	if err.Error() != expectedErrorMsg {
		t.Errorf("Expected error '%s', got '%s'", expectedErrorMsg, err.Error())
	}
}

func TestProviderNamesSorted(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()
	registry.RegisterProvider(&mockProvider{name: "polly"})
	registry.RegisterProvider(&mockProvider{name: "elevenlabs"})

	names := registry.ProviderNames()
	if len(names) != 2 || names[0] != "elevenlabs" || names[1] != "polly" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestLibrariesChainInNameOrder(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()
	registry.RegisterLibrary("b_dir", mockLibrary{"/stock/b.mp4"})
	registry.RegisterLibrary("a_catalog", mockLibrary{"/stock/a.mp4", "/stock/b.mp4"})

	if _, ok := registry.GetLibrary("a_catalog"); !ok {
		t.Fatal("Expected to find registered library")
	}
	if _, ok := registry.GetLibrary("missing"); ok {
		t.Fatal("Expected not to find unregistered library")
	}

	clips, err := registry.Libraries().ListClips(context.Background(), "ciudad")
	if err != nil {
		t.Fatal(err)
	}
	if len(clips) != 2 || clips[0] != "/stock/a.mp4" || clips[1] != "/stock/b.mp4" {
		t.Errorf("unexpected clips %v", clips)
	}
}
