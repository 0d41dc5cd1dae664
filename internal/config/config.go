// Package config loads the nbharness YAML configuration.
package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
	"git.home.luguber.info/inful/nbharness/internal/logfields"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "nbharness.yaml"

// Config is the root configuration.
type Config struct {
	Tutorials TutorialsConfig `yaml:"tutorials"`
	Executor  ExecutorConfig  `yaml:"executor"`
	Diff      DiffConfig      `yaml:"diff"`
	Docs      DocsConfig      `yaml:"docs"`
	History   HistoryConfig   `yaml:"history"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Notify    NotifyConfig    `yaml:"notify"`
	Daemon    DaemonConfig    `yaml:"daemon"`

	// BaseDir is the directory relative paths were resolved against.
	BaseDir string `yaml:"-"`
}

// TutorialsConfig locates the tutorial notebooks.
type TutorialsConfig struct {
	Dir string `yaml:"dir"`
	// Names lists tutorials without the .ipynb suffix. Empty means every
	// notebook found in Dir.
	Names []string `yaml:"names,omitempty"`
}

// ExecutorConfig configures notebook execution.
type ExecutorConfig struct {
	Jupyter string   `yaml:"jupyter"`
	Kernel  string   `yaml:"kernel,omitempty"`
	Timeout Duration `yaml:"timeout"`
}

// DiffConfig configures regression diff filtering. A nil Ignore selects the
// built-in ignore list; an explicit empty list disables filtering.
type DiffConfig struct {
	Ignore []string `yaml:"ignore,omitempty"`
}

// DocsConfig describes the Sphinx documentation build.
type DocsConfig struct {
	Project          string         `yaml:"project"`
	Copyright        string         `yaml:"copyright"`
	Author           string         `yaml:"author"`
	Extensions       []string       `yaml:"extensions"`
	TemplatesPath    []string       `yaml:"templates_path"`
	SourceSuffix     []string       `yaml:"source_suffix"`
	ExcludePatterns  []string       `yaml:"exclude_patterns"`
	MasterDoc        string         `yaml:"master_doc"`
	PygmentsStyle    string         `yaml:"pygments_style"`
	HTMLTheme        string         `yaml:"html_theme"`
	HTMLStaticPath   []string       `yaml:"html_static_path"`
	HTMLThemeOptions map[string]any `yaml:"html_theme_options"`
	HTMLContext      map[string]any `yaml:"html_context"`
	Stylesheets      []string       `yaml:"stylesheets"`

	SourceDir string `yaml:"source_dir"`
	BuildDir  string `yaml:"build_dir"`
	RepoDir   string `yaml:"repo_dir"`
	// Probe selects how version metadata is read: "cli" runs git, "library"
	// reads the repository in-process.
	Probe string `yaml:"probe"`
}

// HistoryConfig configures the run history database. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// MetricsConfig configures the Prometheus textfile export. An empty file disables it.
type MetricsConfig struct {
	File string `yaml:"file,omitempty"`
}

// NotifyConfig configures run notifications. An empty URL disables them.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject"`
}

// DaemonConfig configures continuous regression runs.
type DaemonConfig struct {
	Every Duration `yaml:"every"`
	// Cron replaces Every with a five-field cron expression when set.
	Cron  string `yaml:"cron,omitempty"`
	Watch bool   `yaml:"watch"`
}

// Probe modes.
const (
	ProbeCLI     = "cli"
	ProbeLibrary = "library"
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Tutorials: TutorialsConfig{Dir: "tutorials"},
		Executor: ExecutorConfig{
			Jupyter: "jupyter",
			Timeout: Duration(10 * time.Minute),
		},
		Docs: DocsConfig{
			Project:         "CellRank",
			Copyright:       "2019, Marius Lange, Michal Klein, Juan Luis Restrepo Lopez",
			Author:          "Marius Lange, Michal Klein, Juan Luis Restrepo Lopez",
			Extensions:      []string{"nbsphinx", "sphinx_copybutton"},
			TemplatesPath:   []string{"_templates"},
			SourceSuffix:    []string{".rst", ".ipynb"},
			ExcludePatterns: []string{"**.ipynb_checkpoints"},
			MasterDoc:       "index",
			PygmentsStyle:   "sphinx",
			HTMLTheme:       "sphinx_rtd_theme",
			HTMLStaticPath:  []string{"_static"},
			HTMLThemeOptions: map[string]any{
				"navigation_depth": 4,
				"logo_only":        true,
			},
			HTMLContext: map[string]any{
				"display_github": true,
				"github_user":    "theislab",
				"github_repo":    "cellrank_notebooks",
				"github_version": "master",
				"conf_py_path":   "/docs/source/",
			},
			Stylesheets: []string{"css/custom.css"},
			SourceDir:   "docs/source",
			BuildDir:    "docs/build",
			RepoDir:     ".",
			Probe:       ProbeCLI,
		},
		History: HistoryConfig{Path: ".nbharness/history.db"},
		Notify:  NotifyConfig{Subject: "nbharness.runs"},
		Daemon:  DaemonConfig{Every: Duration(24 * time.Hour)},
	}
}

// Load reads the configuration at path. Environment variables from .env or
// .env.local next to the file are loaded first (without overriding the
// process environment) and ${VAR} references are expanded.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid configuration path").
			WithContext("path", path).Build()
	}
	baseDir := filepath.Dir(abs)
	loadEnvFiles(baseDir)

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("configuration file not found").
				WithCause(err).WithContext("path", abs).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read configuration").
			WithContext("path", abs).Build()
	}
	return parse(data, baseDir)
}

// LoadOrDefault loads path when it exists and falls back to Default,
// rooted at the working directory, when it does not.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Debug("No configuration file, using defaults", logfields.Path(path))
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "cannot determine working directory").Build()
		}
		loadEnvFiles(wd)
		cfg := Default()
		cfg.resolve(wd)
		return cfg, cfg.Validate()
	}
	return Load(path)
}

func parse(data []byte, baseDir string) (*Config, error) {
	cfg := Default()
	// Lists given in the file replace the defaults rather than merging into them.
	cfg.Docs.Extensions, cfg.Docs.TemplatesPath, cfg.Docs.SourceSuffix = nil, nil, nil
	cfg.Docs.ExcludePatterns, cfg.Docs.HTMLStaticPath, cfg.Docs.Stylesheets = nil, nil, nil
	cfg.Docs.HTMLThemeOptions, cfg.Docs.HTMLContext = nil, nil

	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").Build()
	}
	cfg.fillDocsLists()
	cfg.normalize()
	cfg.resolve(baseDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) fillDocsLists() {
	def := Default().Docs
	d := &c.Docs
	if d.Extensions == nil {
		d.Extensions = def.Extensions
	}
	if d.TemplatesPath == nil {
		d.TemplatesPath = def.TemplatesPath
	}
	if d.SourceSuffix == nil {
		d.SourceSuffix = def.SourceSuffix
	}
	if d.ExcludePatterns == nil {
		d.ExcludePatterns = def.ExcludePatterns
	}
	if d.HTMLStaticPath == nil {
		d.HTMLStaticPath = def.HTMLStaticPath
	}
	if d.Stylesheets == nil {
		d.Stylesheets = def.Stylesheets
	}
	if d.HTMLThemeOptions == nil {
		d.HTMLThemeOptions = def.HTMLThemeOptions
	}
	if d.HTMLContext == nil {
		d.HTMLContext = def.HTMLContext
	}
}

func (c *Config) normalize() {
	for i, name := range c.Tutorials.Names {
		c.Tutorials.Names[i] = strings.TrimSuffix(strings.TrimSpace(name), ".ipynb")
	}
	c.Docs.Probe = strings.ToLower(strings.TrimSpace(c.Docs.Probe))
	if c.Docs.Probe == "" {
		c.Docs.Probe = ProbeCLI
	}
	if c.Executor.Jupyter == "" {
		c.Executor.Jupyter = "jupyter"
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = "nbharness.runs"
	}
}

func (c *Config) resolve(baseDir string) {
	c.BaseDir = baseDir
	for _, p := range []*string{
		&c.Tutorials.Dir, &c.Docs.SourceDir, &c.Docs.BuildDir,
		&c.Docs.RepoDir, &c.History.Path, &c.Metrics.File,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(baseDir, *p)
		}
	}
}

// Validate checks the configuration for values no command can work with.
func (c *Config) Validate() error {
	if c.Tutorials.Dir == "" {
		return errors.ValidationError("tutorials.dir must not be empty").Build()
	}
	for _, name := range c.Tutorials.Names {
		if name == "" || strings.ContainsAny(name, `/\`) {
			return errors.ValidationError(fmt.Sprintf("invalid tutorial name %q", name)).
				WithContext("tutorial", name).Build()
		}
	}
	if c.Executor.Timeout < 0 {
		return errors.ValidationError("executor.timeout must not be negative").Build()
	}
	if c.Docs.Probe != ProbeCLI && c.Docs.Probe != ProbeLibrary {
		return errors.ValidationError(fmt.Sprintf("docs.probe must be %q or %q, got %q", ProbeCLI, ProbeLibrary, c.Docs.Probe)).Build()
	}
	if c.Daemon.Every.Std() < time.Minute {
		return errors.ValidationError("daemon.every must be at least 1m").Build()
	}
	return nil
}

// loadEnvFiles loads the first of .env and .env.local found in dir. Existing
// process environment variables win.
func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load environment file", logfields.Path(path), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment variables", logfields.Path(path))
		return
	}
}
