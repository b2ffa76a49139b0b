package settings

import (
	"fmt"

	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/utils"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone         *string `help:"IANA timezone used for dates, or Local."`
	WeekStartsMonday *bool   `help:"Start weekly stats on Monday (false starts on Sunday)."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	if err := ctx.LoadStore(); err != nil {
		return err
	}
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		fmt.Println("Current Settings:")
		fmt.Printf("  Timezone:           %s\n", settings.Timezone)
		fmt.Printf("  Week starts Monday: %v\n", settings.WeekStartsMonday)
		fmt.Printf("  Default user:       %s\n", orDash(settings.DefaultUser))
		return nil
	}

	updated := false
	if c.Timezone != nil {
		if _, err := utils.LoadLocation(*c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", *c.Timezone, err)
		}
		settings.Timezone = *c.Timezone
		updated = true
	}
	if c.WeekStartsMonday != nil {
		settings.WeekStartsMonday = *c.WeekStartsMonday
		updated = true
	}

	if updated {
		if err := ctx.Store.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Println("Settings updated successfully.")
	} else {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
