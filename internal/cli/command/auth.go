package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/yeti-admin/internal/cli/adminapi"
	"github.com/yndnr/yeti-admin/internal/cli/output"
)

// AuthCommand returns the auth subcommand group.
func AuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Inspect users, roles and identity providers",
		Subcommands: []*cli.Command{
			{
				Name:   "overview",
				Usage:  "Show user, role and provider counts",
				Action: authOverview,
			},
			{
				Name:   "users",
				Usage:  "List users",
				Action: authUsers,
			},
			{
				Name:   "roles",
				Usage:  "List roles",
				Action: authRoles,
			},
			{
				Name:   "providers",
				Usage:  "List identity providers known to the auth service",
				Action: authProviders,
			},
			oauthCommand(),
		},
	}
}

func oauthCommand() *cli.Command {
	return &cli.Command{
		Name:  "oauth",
		Usage: "Manage OAuth provider configuration",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List OAuth providers",
				Action:  oauthList,
			},
			{
				Name:  "create",
				Usage: "Add an OAuth provider",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Provider name",
						Required: true,
					},
				}, providerFlags(true)...),
				Action: oauthCreate,
			},
			{
				Name:      "update",
				Usage:     "Change an OAuth provider (unset flags keep their value)",
				ArgsUsage: "NAME",
				Flags:     providerFlags(false),
				Action:    oauthUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Remove an OAuth provider",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: oauthDelete,
			},
		},
	}
}

func providerFlags(create bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "type",
			Aliases:  []string{"t"},
			Usage:    "Provider type (e.g. github, google, oidc)",
			Required: create,
		},
		&cli.StringFlag{
			Name:  "authorize-url",
			Usage: "Authorization endpoint",
		},
		&cli.StringFlag{
			Name:  "token-url",
			Usage: "Token endpoint",
		},
		&cli.StringFlag{
			Name:  "client-id",
			Usage: "OAuth client ID",
		},
		&cli.StringFlag{
			Name:    "client-secret",
			Usage:   "OAuth client secret",
			EnvVars: []string{"YETI_OAUTH_CLIENT_SECRET"},
		},
		&cli.StringSliceFlag{
			Name:  "scope",
			Usage: "Requested scope (repeatable)",
		},
	}
}

// applyProviderFlags copies the flags set on c into p.
func applyProviderFlags(c *cli.Context, p *adminapi.OAuthProvider) {
	if c.IsSet("type") {
		p.Type = c.String("type")
	}
	if c.IsSet("authorize-url") {
		p.AuthorizeURL = c.String("authorize-url")
	}
	if c.IsSet("token-url") {
		p.TokenURL = c.String("token-url")
	}
	if c.IsSet("client-id") {
		p.ClientID = c.String("client-id")
	}
	if c.IsSet("client-secret") {
		p.ClientSecret = c.String("client-secret")
	}
	if c.IsSet("scope") {
		p.Scopes = c.StringSlice("scope")
	}
}

func authOverview(c *cli.Context) error {
	rt, err := requireSession(c)
	if err != nil {
		return err
	}
	ov, err := rt.Client.AuthOverview(c.Context)
	if err != nil {
		return fmt.Errorf("auth overview: %w", err)
	}
	return rt.print(c, ov)
}

func authUsers(c *cli.Context) error {
	rt, err := requireSession(c)
	if err != nil {
		return err
	}
	users, err := rt.Client.ListUsers(c.Context)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	return rt.print(c, users)
}

func authRoles(c *cli.Context) error {
	rt, err := requireSession(c)
	if err != nil {
		return err
	}
	roles, err := rt.Client.ListRoles(c.Context)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}
	return rt.print(c, roles)
}

func authProviders(c *cli.Context) error {
	rt, err := requireSession(c)
	if err != nil {
		return err
	}
	providers, err := rt.Client.ListAuthProviders(c.Context)
	if err != nil {
		return fmt.Errorf("list providers: %w", err)
	}
	return rt.print(c, providers)
}

func oauthList(c *cli.Context) error {
	rt, err := requireSession(c)
	if err != nil {
		return err
	}
	providers, err := rt.Client.ListOAuthProviders(c.Context)
	if err != nil {
		return fmt.Errorf("list oauth providers: %w", err)
	}
	if len(providers) == 0 && rt.tableOutput(c) {
		fmt.Fprintln(rt.Out, "No OAuth providers configured.")
		return nil
	}
	return rt.print(c, providers)
}

func oauthCreate(c *cli.Context) error {
	rt, err := requireSession(c)
	if err != nil {
		return err
	}

	p := adminapi.OAuthProvider{Name: c.String("name")}
	applyProviderFlags(c, &p)

	if err := rt.Client.CreateOAuthProvider(c.Context, p); err != nil {
		return fmt.Errorf("create oauth provider: %w", err)
	}
	output.Success(rt.Out, "OAuth provider %q created", p.Name)
	return nil
}

func oauthUpdate(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return errors.New("provider name required")
	}

	rt, err := requireSession(c)
	if err != nil {
		return err
	}

	providers, err := rt.Client.ListOAuthProviders(c.Context)
	if err != nil {
		return fmt.Errorf("list oauth providers: %w", err)
	}
	var p *adminapi.OAuthProvider
	for i := range providers {
		if providers[i].Name == name {
			p = &providers[i]
			break
		}
	}
	if p == nil {
		return fmt.Errorf("oauth provider %q not found", name)
	}

	applyProviderFlags(c, p)
	if err := rt.Client.UpdateOAuthProvider(c.Context, name, *p); err != nil {
		return fmt.Errorf("update oauth provider: %w", err)
	}
	output.Success(rt.Out, "OAuth provider %q updated", name)
	return nil
}

func oauthDelete(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return errors.New("provider name required")
	}

	rt, err := requireSession(c)
	if err != nil {
		return err
	}

	if !c.Bool("force") {
		fmt.Fprintf(rt.Out, "Are you sure you want to delete OAuth provider '%s'? [y/N]: ", name)
		confirm, _ := rt.readLine()
		if !strings.EqualFold(strings.TrimSpace(confirm), "y") {
			fmt.Fprintln(rt.Out, "Cancelled.")
			return nil
		}
	}

	if err := rt.Client.DeleteOAuthProvider(c.Context, name); err != nil {
		return fmt.Errorf("delete oauth provider: %w", err)
	}
	output.Success(rt.Out, "OAuth provider %q deleted", name)
	return nil
}
