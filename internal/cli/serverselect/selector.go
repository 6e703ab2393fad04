package serverselect

import (
	"fmt"
	"io"

	"github.com/manifoldco/promptui"

	"github.com/taskdesk-dev/taskdesk/internal/cli/config"
	"github.com/taskdesk-dev/taskdesk/internal/cli/userconfig"
)

// Prompter asks the user to pick one of the configured servers
type Prompter func(projectConfig *config.Config) (*config.Server, error)

// Resolver determines which server a command talks to
type Resolver struct {
	Prompt Prompter
	// Warnings receives non-fatal messages such as a failure to remember the selection
	Warnings io.Writer
}

// NewResolver returns a resolver that prompts interactively
func NewResolver(warnings io.Writer) *Resolver {
	return &Resolver{Prompt: PromptServerSelection, Warnings: warnings}
}

// ResolveServer determines which server to use based on the following priority:
// 1. If serverFlag is provided, use the server with that URL or alias
// 2. If user has a selected server in their local config, use that
// 3. If only one server in project config, use that
// 4. Otherwise, prompt user to select a server interactively
func (r *Resolver) ResolveServer(projectConfig *config.Config, serverFlag string) (*config.Server, error) {
	// Priority 1: explicit flag or environment
	if serverFlag != "" {
		return projectConfig.GetServerByURLOrAlias(serverFlag)
	}

	// Priority 2: Use selected server from user config
	selectedURL, err := userconfig.GetSelectedServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selectedURL != "" {
		server, err := projectConfig.GetServerByURL(selectedURL)
		if err != nil {
			// Selected server no longer exists in project config, clear it and continue
			_ = userconfig.SetSelectedServer("")
		} else {
			return server, nil
		}
	}

	// Priority 3: If only one server, use it automatically
	if len(projectConfig.Servers) == 1 {
		server := &projectConfig.Servers[0]
		r.remember(server)
		return server, nil
	}

	// Priority 4: Prompt user to select a server
	server, err := r.Prompt(projectConfig)
	if err != nil {
		return nil, err
	}
	r.remember(server)

	return server, nil
}

func (r *Resolver) remember(server *config.Server) {
	if err := userconfig.SetSelectedServer(server.URL); err != nil && r.Warnings != nil {
		// Don't fail if we can't save, just continue
		fmt.Fprintf(r.Warnings, "Warning: failed to save selected server: %v\n", err)
	}
}

// PromptServerSelection shows an interactive prompt for the user to select a server
func PromptServerSelection(projectConfig *config.Config) (*config.Server, error) {
	if len(projectConfig.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", config.ConfigFileName)
	}

	type serverOption struct {
		Label  string
		Server *config.Server
	}

	options := make([]serverOption, len(projectConfig.Servers))
	for i := range projectConfig.Servers {
		server := &projectConfig.Servers[i]
		options[i] = serverOption{
			Label:  fmt.Sprintf("%s (%s)", server.Alias, server.URL),
			Server: server,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a server",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return options[index].Server, nil
}
