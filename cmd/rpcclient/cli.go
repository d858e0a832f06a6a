package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/goliatone/go-errors"
	rpcclient "github.com/goliatone/go-rpcclient"
	"github.com/goliatone/go-rpcclient/catalog"
	"github.com/goliatone/go-rpcclient/transport"
	"gopkg.in/yaml.v3"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config    string        `help:"YAML file with transport and catalog settings." short:"c" type:"path"`
	Catalog   string        `help:"Catalog file (JSON or YAML). Defaults to the bundled Ethereum catalog." type:"path"`
	Transport string        `help:"Transport kind: http, https, websocket, ws, wss, tcp, tls or stdio." short:"t"`
	URL       string        `help:"Transport endpoint." name:"url" short:"u"`
	Timeout   time.Duration `help:"Per request timeout."`
	LogLevel  string        `help:"Log level: trace, debug, info, warn or error. Defaults to the config file value, then info."`
}

const (
	ErrCodeConfigRead       = "CLI_CONFIG_READ_FAILED"
	ErrCodeConfigDecode     = "CLI_CONFIG_INVALID"
	ErrCodeLogLevel         = "CLI_LOG_LEVEL_INVALID"
	ErrCodeTransportOffline = "CLI_TRANSPORT_OFFLINE"
)

var logLevels = []string{"trace", "debug", "info", "warn", "error"}

// CLI is the command tree.
type CLI struct {
	Globals `embed:""`

	Methods  methodsCmd  `cmd:"" help:"List catalog methods."`
	Describe describeCmd `cmd:"" help:"Print the descriptor of a method."`
	Validate validateCmd `cmd:"" help:"Validate arguments without sending the call."`
	Call     callCmd     `cmd:"" help:"Validate arguments and send the call."`
}

// fileConfig is the shape of the --config YAML file.
type fileConfig struct {
	Transport transport.Config `yaml:"transport"`
	Catalog   string           `yaml:"catalog"`
	LogLevel  string           `yaml:"logLevel"`
}

type settings struct {
	transport transport.Config
	catalog   catalog.Catalog
	logLevel  string
	logger    rpcclient.Logger
}

func (g *Globals) resolve() (settings, error) {
	var file fileConfig
	if g.Config != "" {
		raw, err := os.ReadFile(g.Config)
		if err != nil {
			return settings{}, errors.Wrap(err, errors.CategoryBadInput, "read config").
				WithTextCode(ErrCodeConfigRead).
				WithMetadata(map[string]any{"path": g.Config})
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return settings{}, errors.Wrap(err, errors.CategoryBadInput, "decode config").
				WithTextCode(ErrCodeConfigDecode).
				WithMetadata(map[string]any{"path": g.Config})
		}
	}

	cfg := file.Transport
	if g.Transport != "" {
		cfg.Kind = g.Transport
	}
	if g.URL != "" {
		cfg.URL = g.URL
	}
	if g.Timeout > 0 {
		cfg.Timeout = g.Timeout
	}

	level := g.LogLevel
	if level == "" {
		level = file.LogLevel
	}
	if level == "" {
		level = "info"
	}
	if !slices.Contains(logLevels, level) {
		return settings{}, errors.New(fmt.Sprintf("unknown log level %q", level), errors.CategoryBadInput).
			WithTextCode(ErrCodeLogLevel).
			WithMetadata(map[string]any{"level": level, "allowed": logLevels})
	}

	path := g.Catalog
	if path == "" {
		path = file.Catalog
	}
	methods := catalog.Ethereum()
	if path != "" {
		loaded, err := catalog.Load(path)
		if err != nil {
			return settings{}, err
		}
		methods = loaded
	}

	return settings{
		transport: cfg,
		catalog:   methods,
		logLevel:  level,
		logger:    rpcclient.NewLogger(level),
	}, nil
}

type methodsCmd struct{}

func (c *methodsCmd) Run(kctx *kong.Context, g *Globals) error {
	s, err := g.resolve()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(kctx.Stdout, 0, 4, 2, ' ', 0)
	for _, name := range s.catalog.Names() {
		m, _ := s.catalog.Lookup(name)
		params := make([]string, 0, len(m.Params))
		for _, p := range m.Params {
			if p.Required {
				params = append(params, p.Name)
			} else {
				params = append(params, p.Name+"?")
			}
		}
		fmt.Fprintf(w, "%s\t(%s)\t%s\n", m.Name, strings.Join(params, ", "), m.Summary)
	}
	return w.Flush()
}

type describeCmd struct {
	Method string `arg:"" help:"Method name."`
}

func (c *describeCmd) Run(kctx *kong.Context, g *Globals) error {
	s, err := g.resolve()
	if err != nil {
		return err
	}
	m, ok := s.catalog.Lookup(c.Method)
	if !ok {
		return errors.New(fmt.Sprintf("unknown method %q", c.Method), errors.CategoryBadInput).
			WithTextCode(rpcclient.ErrCodeUnknownMethod).
			WithMetadata(map[string]any{"method": c.Method})
	}
	return printJSON(kctx.Stdout, m)
}

type validateCmd struct {
	Method string   `arg:"" help:"Method name."`
	Args   []string `arg:"" optional:"" help:"Arguments, decoded as JSON when they parse and taken as strings otherwise."`
}

func (c *validateCmd) Run(kctx *kong.Context, g *Globals) error {
	s, err := g.resolve()
	if err != nil {
		return err
	}
	// validation never dispatches, so no real transport is needed
	client, err := rpcclient.New(s.catalog, transport.Config{Kind: "offline"},
		rpcclient.WithLogger(s.logger),
		rpcclient.WithTransport(offline{}),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	params, err := client.Validate(c.Method, decodeArgs(c.Args)...)
	if err != nil {
		printValidation(kctx.Stderr, err)
		return err
	}
	return printJSON(kctx.Stdout, params)
}

type callCmd struct {
	Method string   `arg:"" help:"Method name."`
	Args   []string `arg:"" optional:"" help:"Arguments, decoded as JSON when they parse and taken as strings otherwise."`
}

func (c *callCmd) Run(ctx context.Context, kctx *kong.Context, g *Globals) error {
	s, err := g.resolve()
	if err != nil {
		return err
	}
	client, err := rpcclient.New(s.catalog, s.transport, rpcclient.WithLogger(s.logger))
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.Request(ctx, c.Method, decodeArgs(c.Args)...)
	if err != nil {
		printValidation(kctx.Stderr, err)
		return err
	}
	return printJSON(kctx.Stdout, result)
}

// decodeArgs turns command line arguments into call values. Numbers keep
// their literal form so large quantities survive the round trip.
func decodeArgs(args []string) []any {
	out := make([]any, 0, len(args))
	for _, arg := range args {
		dec := json.NewDecoder(strings.NewReader(arg))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil || dec.More() {
			out = append(out, arg)
			continue
		}
		out = append(out, v)
	}
	return out
}

func printValidation(w io.Writer, err error) {
	var errs rpcclient.ValidationErrors
	if !errors.As(err, &errs) {
		return
	}
	for _, ve := range errs {
		fmt.Fprintf(w, "- %s\n", ve.Message)
		for _, cause := range ve.Causes {
			fmt.Fprintf(w, "    %s\n", cause.String())
		}
	}
}

func printJSON(w io.Writer, v any) error {
	var raw []byte
	var err error
	if msg, ok := v.(json.RawMessage); ok {
		var buf bytes.Buffer
		if err = json.Indent(&buf, msg, "", "  "); err != nil {
			return err
		}
		raw = buf.Bytes()
	} else if raw, err = json.MarshalIndent(v, "", "  "); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

type offline struct{}

func (offline) Request(context.Context, string, any) (*transport.Response, error) {
	return nil, errors.New("offline transport does not dispatch", errors.CategoryBadInput).
		WithTextCode(ErrCodeTransportOffline)
}

func (offline) Close() error { return nil }
