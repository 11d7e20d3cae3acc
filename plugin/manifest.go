package plugin

// SettingType enumerates the input kinds a provider setting can declare.
type SettingType string

const (
	SettingText     SettingType = "text"
	SettingPassword SettingType = "password"
	SettingBoolean  SettingType = "boolean"
)

// SettingSpec describes one configurable value of a provider, as declared
// in its plugin manifest.
type SettingSpec struct {
	Key      string      `toml:"key"`
	Label    string      `toml:"label"`
	Type     SettingType `toml:"type"`
	EnvVar   string      `toml:"env_var,omitempty"`
	Required bool        `toml:"required,omitempty"`
	Default  string      `toml:"default,omitempty"`
}

// Secret reports whether the setting must only ever reach environment
// storage, never the general settings file. The api_key key is always a
// secret regardless of its declared type.
func (s SettingSpec) Secret() bool {
	return s.Key == "api_key" || s.Type == SettingPassword
}

// ProviderSpec is the single provider a manifest declares.
type ProviderSpec struct {
	Type     string        `toml:"type"`
	Name     string        `toml:"name"`
	Settings []SettingSpec `toml:"settings"`
}

// Manifest is the parsed form of a plugin artifact. Exactly one provider
// definition is required; the loader rejects anything else.
type Manifest struct {
	Provider *ProviderSpec `toml:"provider"`
}

// templateManifest is written into a freshly created plugins directory.
// The leading underscore in its filename keeps it out of discovery.
const templateManifest = `# Custom provider plugin template.
#
# Copy this file to <your_provider>.toml and fill in the fields below.
# The file name (minus .toml and an optional _plugin suffix) becomes the
# provider id. Files starting with an underscore are ignored.

[provider]
# One of the registered provider types: openai, anthropic, google, ollama, mock
type = "openai"
# Display name shown in status and model listings
name = "My Provider"

[[provider.settings]]
key = "api_key"
label = "API Key"
type = "password"
env_var = "MY_PROVIDER_API_KEY"
required = true

[[provider.settings]]
key = "base_url"
label = "Base URL"
type = "text"
default = "https://api.example.com/v1"
`
