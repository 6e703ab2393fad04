package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

func stdinIsTerminal() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// readPassword reads a secret without echoing it
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

func readLine(label string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: validate,
	}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("%s prompt cancelled: %w", label, err)
	}
	return value, nil
}

func selectOption(label string, items []string) (string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  10,
	}
	_, value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("%s selection cancelled: %w", label, err)
	}
	return value, nil
}

// promptMissing fills value interactively when it is empty and a terminal is attached
func (o *Options) promptMissing(value *string, label string, required bool) error {
	if *value != "" {
		return nil
	}
	if !o.Interactive() {
		if required {
			return fmt.Errorf("%s is required in non-interactive mode", label)
		}
		return nil
	}

	var validate func(string) error
	if required {
		validate = func(s string) error {
			if s == "" {
				return fmt.Errorf("%s is required", label)
			}
			return nil
		}
	}

	v, err := o.ReadLine(label, validate)
	if err != nil {
		return err
	}
	*value = v
	return nil
}

func envPassword() string {
	return os.Getenv("TASKDESK_PASSWORD")
}
