package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/lfti/trustindex/pkg/auth"
)

var (
	tokenFlag = &cli.StringFlag{
		Name:  "token",
		Usage: "Collector API token (omit to be prompted)",
	}

	deleteTokenFlag = &cli.BoolFlag{
		Name:  "delete",
		Usage: "Remove the stored token",
	}

	authCmd = &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Store the collector API token used to pull source snapshots",
		Action:          cmdAuth,
		Flags: []cli.Flag{
			tokenFlag,
			deleteTokenFlag,
		},
	}
)

func cmdAuth(c *cli.Context) error {
	cfg := getAppConfig(c)

	if c.Bool(deleteTokenFlag.Name) {
		if err := auth.DeleteToken(cfg.HomeDir); err != nil {
			return fmt.Errorf("deleting token: %w", err)
		}
		fmt.Println("Token removed")
		return nil
	}

	token := c.String(tokenFlag.Name)
	if token == "" {
		fmt.Print("Paste the collector API token and hit enter:\n> ")
		if _, err := fmt.Scanln(&token); err != nil {
			return fmt.Errorf("reading user input: %w", err)
		}
	}

	if err := auth.SaveToken(cfg.HomeDir, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Println("Token saved to OS keychain")
	return nil
}
