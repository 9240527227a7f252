package plugin_registry

import (
	"fmt"
	"sort"

	"github.com/serisow/narrador/speech"
	"github.com/serisow/narrador/stock"
)

// PluginRegistry holds the named speech providers and stock libraries the
// service was started with.
type PluginRegistry struct {
	providers map[string]speech.Provider
	libraries map[string]stock.Library
}

func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{
		providers: make(map[string]speech.Provider),
		libraries: make(map[string]stock.Library),
	}
}

// RegisterProvider registers a speech provider under its name.
func (pr *PluginRegistry) RegisterProvider(provider speech.Provider) {
	pr.providers[provider.Name()] = provider
}

// GetProvider returns a speech provider by name.
func (pr *PluginRegistry) GetProvider(name string) (speech.Provider, error) {
	provider, ok := pr.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown speech provider: %s", name)
	}
	return provider, nil
}

func (pr *PluginRegistry) ProviderNames() []string {
	names := make([]string, 0, len(pr.providers))
	for name := range pr.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterLibrary registers a stock library.
func (pr *PluginRegistry) RegisterLibrary(name string, library stock.Library) {
	pr.libraries[name] = library
}

// GetLibrary returns a stock library by name.
func (pr *PluginRegistry) GetLibrary(name string) (stock.Library, bool) {
	library, ok := pr.libraries[name]
	return library, ok
}

// Libraries chains every registered library in name order.
func (pr *PluginRegistry) Libraries() stock.Chain {
	names := make([]string, 0, len(pr.libraries))
	for name := range pr.libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	chain := make(stock.Chain, 0, len(names))
	for _, name := range names {
		chain = append(chain, pr.libraries[name])
	}
	return chain
}
