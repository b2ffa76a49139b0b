package profiles

import (
	"fmt"

	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/profile"
)

type ProfileSetCmd struct {
	Name    *string `help:"Display name shown to other members."`
	Email   *string `help:"Email address."`
	Avatar  *string `help:"Avatar image URL."`
	Default bool    `help:"Use this user when no --user is given."`
}

func (c *ProfileSetCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Profiles()
	if err != nil {
		return err
	}
	user, err := ctx.User()
	if err != nil {
		return err
	}
	p, err := svc.Set(user, profile.Update{DisplayName: c.Name, Email: c.Email, AvatarURL: c.Avatar})
	if err != nil {
		return err
	}
	if c.Default {
		if err := svc.SetDefault(user); err != nil {
			return err
		}
	}
	fmt.Printf("✓ Saved profile for %s (%s)\n", p.UserID, p.Name())
	return nil
}

type ProfileShowCmd struct{}

func (c *ProfileShowCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Profiles()
	if err != nil {
		return err
	}
	user, err := ctx.User()
	if err != nil {
		return err
	}
	p, err := svc.Get(user)
	if err != nil {
		return err
	}
	fmt.Printf("User:   %s\n", p.UserID)
	fmt.Printf("Name:   %s\n", p.Name())
	if p.Email != "" {
		fmt.Printf("Email:  %s\n", p.Email)
	}
	if p.AvatarURL != "" {
		fmt.Printf("Avatar: %s\n", p.AvatarURL)
	}
	return nil
}
