package manifest

// Default option values applied by the built-in handlers when a key is absent.
const (
	DefaultPrintFmt   = "{obj[repository][name]}: {obj[push][changes][0][new][target][hash]}"
	DefaultDumpFnFmt  = "{obj[repository][name]}.{obj[push][changes][0][commits][0][hash]}.log"
	DefaultDumpAppend = true
	DefaultRunCommand = "echo"
	DefaultRunJSONIn  = false
)

// DefaultRunArgs is returned fresh so callers may not alias it.
func DefaultRunArgs() []string { return []string{"{obj[repository][name]}"} }

// Entry binds a handler name to its ordered option records.
type Entry struct {
	Name    string
	Options []Options
}

// Config is the handler configuration. Entries dispatch in slice order.
type Config struct {
	Entries []Entry
}

// Lookup returns the option records configured for name; nil when absent.
func (c Config) Lookup(name string) []Options {
	for _, e := range c.Entries {
		if e.Name == name {
			return e.Options
		}
	}
	return nil
}

// Empty reports whether no handler is configured.
func (c Config) Empty() bool { return len(c.Entries) == 0 }

// Set replaces the options for name, keeping its position when already present.
func (c *Config) Set(name string, opts []Options) {
	for i := range c.Entries {
		if c.Entries[i].Name == name {
			c.Entries[i].Options = opts
			return
		}
	}
	c.Entries = append(c.Entries, Entry{Name: name, Options: opts})
}

// Default is the configuration used when no file is loaded: a single print of the
// push summary in debug mode, nothing otherwise.
func Default(debug bool) Config {
	if !debug {
		return Config{}
	}
	return Config{Entries: []Entry{{
		Name:    string(HandlerPrint),
		Options: []Options{{"fmt": DefaultPrintFmt}},
	}}}
}
