package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/admitpath/coach-gateway/internal/utils"
)

// setupWizard interactively collects the secrets the gateway needs and
// writes them to the project .env.
func setupWizard() error {
	fmt.Println("coach-gateway setup")
	fmt.Println()

	apiKey, err := promptSecret("Anthropic API key (input hidden): ")
	if err != nil {
		return err
	}
	if apiKey == "" {
		return fmt.Errorf("an API key is required")
	}

	secret, err := promptSecret("Session token secret (Enter to generate): ")
	if err != nil {
		return err
	}
	if secret == "" {
		secret, err = utils.RandomHex(32)
		if err != nil {
			return err
		}
		fmt.Println("  generated a random secret")
	}

	if err := appendToEnvFile(".env", "ANTHROPIC_API_KEY", apiKey); err != nil {
		return err
	}
	if err := appendToEnvFile(".env", "SESSION_TOKEN_SECRET", secret); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Wrote .env (api key %s)\n", utils.MaskKey(apiKey))
	fmt.Println("Start the gateway with: coach-gateway -config config.yaml")
	return nil
}

// promptSecret reads a line without echoing when stdin is a terminal.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// appendToEnvFile appends or updates a key=value pair in an .env file.
func appendToEnvFile(envPath, key, value string) error {
	if dir := filepath.Dir(envPath); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	var lines []string
	found := false

	// #nosec G304 -- env file constructed from known paths
	file, err := os.Open(envPath)
	if err == nil {
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, key+"=") {
				lines = append(lines, fmt.Sprintf("%s=%s", key, value))
				found = true
			} else {
				lines = append(lines, line)
			}
		}
		_ = file.Close()
	}

	if !found {
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}

	output := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(envPath, []byte(output), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", envPath, err)
	}
	return nil
}
