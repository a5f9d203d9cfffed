package driven

// ConfigStore reads and writes settings addressed by dot paths such as
// "pipeline.chunk_words". Typed getters return the zero value when a key
// is missing or holds another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	// GetFloat converts integer values.
	GetFloat(key string) float64
	GetBool(key string) bool

	// Set stores a value and persists the file.
	Set(key string, value any) error
	Save() error
	Load() error

	// Path is the backing file.
	Path() string
}
