package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/assetctl/internal/core/services"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

var (
	loginRemember bool
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login [user-id]",
	Short: "Log in to the asset backend",
	Long: `Log in and store the session token.

The password is read from the terminal without echo. Use --remember to keep
the session for 7 days instead of 24 hours.

Examples:
  assetctl login amy
  assetctl login amy --remember`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authService.Logout(); err != nil {
			fmt.Println(ui.FormatError("Failed to clear session"))
			return err
		}
		fmt.Println(ui.FormatSuccess("Logged out"))
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user and their parks",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().BoolVar(&loginRemember, "remember", false, "Keep the session for 7 days")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prompted when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := getContext()
	reader := bufio.NewReader(os.Stdin)

	userID := ""
	if len(args) == 1 {
		userID = args[0]
	} else {
		fmt.Print(ui.StyleAccent.Render("User ID: "))
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read user id: %w", err)
		}
		userID = strings.TrimSpace(line)
	}

	password := loginPassword
	if password == "" {
		p, err := readPassword(reader, ui.StyleAccent.Render("Password: "))
		if err != nil {
			return err
		}
		password = p
	}

	user, err := authService.Login(ctx, services.LoginRequest{
		UserID:        userID,
		Password:      password,
		Remember7Days: loginRemember,
	})
	if err != nil {
		printErr(services.MsgLoginFailed, err)
		return err
	}

	name := user.UserName
	if name == "" {
		name = user.UserID
	}
	fmt.Println(ui.FormatSuccess("Logged in as " + name))
	if len(user.ParkIDs) == 0 {
		fmt.Println(ui.FormatWarning("No parks are granted to this account"))
	}
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	user, err := authService.Restore(ctx)
	if err != nil {
		if errors.Is(err, services.ErrNotLoggedIn) {
			fmt.Println(ui.FormatWarning("Not logged in"))
			return nil
		}
		return err
	}

	fmt.Println(ui.RenderKeyValue("User", user.UserID))
	if user.UserName != "" {
		fmt.Println(ui.RenderKeyValue("Name", user.UserName))
	}
	if user.UserGroup != "" {
		fmt.Println(ui.RenderKeyValue("Group", user.UserGroup))
	}
	fmt.Println(ui.RenderKeyValue("Server", appConfig.ServerURL))
	fmt.Println()

	if len(user.Parks) == 0 {
		fmt.Println(ui.FormatMuted("No parks granted"))
		return nil
	}
	fmt.Println(ui.FormatTitle(fmt.Sprintf("Parks (%d)", len(user.Parks))))
	items := make([]string, len(user.Parks))
	for i, p := range user.Parks {
		items[i] = p.Label()
	}
	fmt.Print(ui.RenderSimpleList(items))
	return nil
}
