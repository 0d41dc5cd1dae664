package docconf

import (
	appcfg "git.home.luguber.info/inful/nbharness/internal/config"
)

// Config holds every option written to conf.py.
type Config struct {
	Project   string
	Copyright string
	Author    string

	Version string
	Release string
	Today   string

	Extensions      []string
	TemplatesPath   []string
	SourceSuffix    []string
	ExcludePatterns []string
	MasterDoc       string
	PygmentsStyle   string

	HTMLTheme        string
	HTMLStaticPath   []string
	HTMLThemeOptions map[string]any
	HTMLContext      map[string]any

	// Stylesheets are added through app.add_css_file in setup(app).
	Stylesheets []string
}

// FromSettings builds a Config from the docs section of the application
// configuration. Version fields start as placeholders until WithMetadata.
func FromSettings(d appcfg.DocsConfig) Config {
	return Config{
		Project:          d.Project,
		Copyright:        d.Copyright,
		Author:           d.Author,
		Version:          UnknownVersion,
		Release:          UnknownVersion,
		Today:            UnknownDate,
		Extensions:       d.Extensions,
		TemplatesPath:    d.TemplatesPath,
		SourceSuffix:     d.SourceSuffix,
		ExcludePatterns:  d.ExcludePatterns,
		MasterDoc:        d.MasterDoc,
		PygmentsStyle:    d.PygmentsStyle,
		HTMLTheme:        d.HTMLTheme,
		HTMLStaticPath:   d.HTMLStaticPath,
		HTMLThemeOptions: d.HTMLThemeOptions,
		HTMLContext:      d.HTMLContext,
		Stylesheets:      d.Stylesheets,
	}
}

// Default returns the configuration of the tutorial docs.
func Default() Config {
	return FromSettings(appcfg.Default().Docs)
}

// WithMetadata returns a copy of c carrying m.
func (c Config) WithMetadata(m Metadata) Config {
	c.Version = m.Version
	c.Release = m.Release
	c.Today = m.Date
	return c
}
