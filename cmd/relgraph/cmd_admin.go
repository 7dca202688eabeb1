package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator session management",
	}
	cmd.AddCommand(newAdminLoginCmd(), newAdminLogoutCmd(), newAdminStatusCmd())
	return cmd
}

func newAdminLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <password-or-key>",
		Short: "Verify admin credentials",
		Long: `Verify admin credentials.

In local mode the argument is the admin password; the first password ever
entered becomes the admin password. In --remote mode it is the backend admin
key, which is verified against the backend and cached for later runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.remote {
				if err := a.remoteAuth.Verify(context.Background(), args[0]); err != nil {
					return err
				}
				good.Println("admin key verified and cached")
				return nil
			}

			firstTime, err := a.localAuth.Login(args[0])
			if err != nil {
				return err
			}
			if firstTime {
				good.Println("admin password set")
			} else {
				good.Println("password accepted")
			}
			subtle.Println("admin sessions do not outlive the process; pass --admin-password to admin-only commands")
			return nil
		},
	}
}

func newAdminLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the cached admin credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.remote {
				if err := a.remoteAuth.Logout(); err != nil {
					return err
				}
			} else {
				a.localAuth.Logout()
			}
			good.Println("logged out")
			return nil
		},
	}
}

func newAdminStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether this run holds admin privileges",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var isAdmin bool
			if a.remote {
				isAdmin = a.remoteAuth.IsAdmin()
			} else {
				isAdmin = a.localAuth.IsAdmin()
			}
			if isAdmin {
				good.Println("admin")
			} else {
				fmt.Println("not admin")
			}
			return nil
		},
	}
}
