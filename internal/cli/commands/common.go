package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/taskdesk-dev/taskdesk/internal/api"
	"github.com/taskdesk-dev/taskdesk/internal/cli/auth"
	"github.com/taskdesk-dev/taskdesk/internal/cli/client"
	"github.com/taskdesk-dev/taskdesk/internal/cli/config"
	"github.com/taskdesk-dev/taskdesk/internal/cli/output"
	"github.com/taskdesk-dev/taskdesk/internal/cli/serverselect"
	"github.com/taskdesk-dev/taskdesk/internal/cli/userconfig"
	"github.com/taskdesk-dev/taskdesk/internal/session"
)

const requestTimeout = 30 * time.Second

var inputValidator = api.NewValidator()

var errNotAuthenticated = errors.New("not authenticated. Please run 'taskdesk login' first")

// TokenStoreFactory opens the persisted credential for a server
type TokenStoreFactory func(kind, serverURL string) (session.TokenStore, error)

// Options holds the global flags and the dependencies shared by every command
type Options struct {
	Server   string
	Output   string
	LogLevel string

	Out    io.Writer
	Err    io.Writer
	Logger zerolog.Logger

	HTTPClient   *http.Client
	OpenStore    TokenStoreFactory
	Interactive  func() bool
	ReadPassword func(prompt string) (string, error)
	ReadLine     func(label string, validate func(string) error) (string, error)
	SelectOption func(label string, items []string) (string, error)
	PromptServer serverselect.Prompter
}

// NewOptions returns options wired to the terminal, the OS keyring and the real network
func NewOptions() *Options {
	return &Options{
		Out:    os.Stdout,
		Err:    os.Stderr,
		Logger: zerolog.Nop(),
		OpenStore: func(kind, serverURL string) (session.TokenStore, error) {
			return auth.Open(kind, serverURL)
		},
		Interactive:  stdinIsTerminal,
		ReadPassword: readPassword,
		ReadLine:     readLine,
		SelectOption: selectOption,
		PromptServer: serverselect.PromptServerSelection,
	}
}

func (o *Options) printer() (*output.Printer, error) {
	return output.New(o.Output, o.Out)
}

// serverFlag returns --server, falling back to TASKDESK_SERVER
func (o *Options) serverFlag() string {
	if o.Server != "" {
		return o.Server
	}
	return os.Getenv("TASKDESK_SERVER")
}

// resolveServer picks the server to talk to. A full URL passed with --server
// or TASKDESK_SERVER works without a taskdesk.json.
func (o *Options) resolveServer() (*config.Server, error) {
	flag := o.serverFlag()
	if strings.Contains(flag, "://") {
		if cfg, err := config.LoadFromCurrentDir(); err == nil {
			if server, err := cfg.GetServerByURL(flag); err == nil {
				return server, nil
			}
		}
		return &config.Server{URL: flag, Alias: flag}, nil
	}

	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'taskdesk init <server-url>' to create a configuration file", err)
	}

	resolver := &serverselect.Resolver{Prompt: o.PromptServer, Warnings: o.Err}
	server, err := resolver.ResolveServer(cfg, flag)
	if err != nil {
		return nil, err
	}

	if server.URL == "" {
		return nil, fmt.Errorf("server URL is empty. Please edit taskdesk.json and add a valid URL")
	}

	return server, nil
}

// defaultProjectID returns default_project_id from taskdesk.json, if any
func defaultProjectID() *int {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil
	}
	return cfg.DefaultProjectID
}

// app is the per-invocation wiring of server, transport and session
type app struct {
	server  *config.Server
	client  *client.Client
	session *session.Manager
}

func (o *Options) newApp() (*app, error) {
	server, err := o.resolveServer()
	if err != nil {
		return nil, err
	}

	kind, err := userconfig.GetTokenStore()
	if err != nil {
		return nil, err
	}

	store, err := o.OpenStore(kind, server.URL)
	if err != nil {
		return nil, err
	}

	apiClient := client.New(server.URL)
	if o.HTTPClient != nil {
		apiClient.SetHTTPClient(o.HTTPClient)
	}

	mgr := session.New(store, apiClient, o.Logger)
	apiClient.SetTokenSource(mgr)

	return &app{server: server, client: apiClient, session: mgr}, nil
}

// authenticatedApp rehydrates the persisted session and refuses to continue without one
func (o *Options) authenticatedApp(ctx context.Context) (*app, error) {
	a, err := o.newApp()
	if err != nil {
		return nil, err
	}

	state := a.session.Initialize(ctx)
	if !state.IsAuthenticated {
		return nil, errNotAuthenticated
	}

	return a, nil
}

func commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, requestTimeout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func joinComma(items []string) string {
	return strings.Join(items, ", ")
}

// dateFlag parses a YYYY-MM-DD flag value, returning nil when the flag was not passed
func dateFlag(cmd *cobra.Command, flag, value string) (*time.Time, error) {
	if !cmd.Flags().Changed(flag) {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q, expected YYYY-MM-DD", flag, value)
	}
	return &t, nil
}

// validatePartial checks an update input, skipping the fields that are only required on create
func validatePartial(input any, createOnly ...string) error {
	err := inputValidator.StructExcept(input, createOnly...)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
	}
	return fmt.Errorf("invalid value for %s", joinComma(fields))
}
