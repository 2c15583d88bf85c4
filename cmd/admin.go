package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/assetctl/internal/backend/store"
	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

var (
	adminAreaCode  string
	adminAreaName  string
	adminParkName  string
	adminUserName  string
	adminUserGroup string
	adminPassword  string
	adminParks     []string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage areas, parks and users in the server database",
	Long: `Administrative commands that work directly on the server database.

They take the same --db-driver and --dsn flags as 'assetctl serve'.`,
}

var adminAddAreaCmd = &cobra.Command{
	Use:   "add-area <area-id>",
	Short: "Create an area",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := getContext()
		st, closeDB, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		area := domain.Area{AreaID: args[0], Code: adminAreaCode, Name: adminAreaName}
		if area.Code == "" {
			area.Code = area.AreaID
		}
		created, err := st.CreateArea(ctx, area)
		if err != nil {
			fmt.Println(ui.FormatError("Failed to create area"))
			return err
		}
		if !created {
			fmt.Println(ui.FormatWarning("Area " + area.Code + " already exists"))
			return nil
		}
		fmt.Println(ui.FormatSuccess("Created area " + area.Code))
		return nil
	},
}

var adminAddParkCmd = &cobra.Command{
	Use:   "add-park <park-id> <area-code>",
	Short: "Create a park in an area",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := getContext()
		st, closeDB, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		park := domain.Park{ParkID: args[0], AreaCode: args[1], Name: adminParkName}
		created, err := st.CreatePark(ctx, park)
		if err != nil {
			fmt.Println(ui.FormatError("Failed to create park"))
			return err
		}
		if !created {
			fmt.Println(ui.FormatWarning("Park " + park.ParkID + " already exists"))
			return nil
		}
		fmt.Println(ui.FormatSuccess("Created park " + park.Label()))
		return nil
	},
}

var adminAddUserCmd = &cobra.Command{
	Use:   "add-user <user-id>",
	Short: "Create or replace a user",
	Long: `Create a user, replacing any existing user with the same id.

The password is prompted for unless --password is given.

Examples:
  assetctl admin add-user ops1 --name "Operator One" --parks P001,P002`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := adminPassword
		if password == "" {
			p, err := readPassword(bufio.NewReader(os.Stdin), "Password for "+args[0]+": ")
			if err != nil {
				return err
			}
			password = p
		}

		ctx := getContext()
		st, closeDB, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		user := domain.User{
			UserID:    args[0],
			UserName:  adminUserName,
			UserGroup: adminUserGroup,
			ParkIDs:   splitParkFlags(adminParks),
		}
		created, err := st.CreateUser(ctx, user, password)
		if err != nil {
			printErr("Failed to create user", err)
			return err
		}
		fmt.Println(ui.FormatSuccess("Saved user " + created.UserID))
		if len(created.ParkIDs) > 0 {
			fmt.Println(ui.RenderKeyValue("Parks", domain.JoinIDs(created.ParkIDs)))
		}
		return nil
	},
}

var adminGrantCmd = &cobra.Command{
	Use:   "grant <user-id> <park-id>...",
	Short: "Grant a user access to parks",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := getContext()
		st, closeDB, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		granted, err := st.GrantParks(ctx, args[0], splitParkFlags(args[1:]))
		if errors.Is(err, store.ErrNotFound) {
			fmt.Println(ui.FormatError("No user " + args[0]))
			return err
		}
		if err != nil {
			return err
		}
		fmt.Println(ui.FormatSuccess("Updated " + args[0]))
		fmt.Println(ui.RenderKeyValue("Parks", domain.JoinIDs(granted)))
		return nil
	},
}

var adminCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Strip legacy fields from assets and backfill missing timestamps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := getContext()
		st, closeDB, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		res, err := st.CleanupAssets(ctx)
		if err != nil {
			fmt.Println(ui.FormatError("Cleanup failed"))
			return err
		}
		fmt.Println(ui.FormatSuccess("Cleanup complete"))
		fmt.Println(ui.RenderKeyValue("Scanned", fmt.Sprint(res.Scanned)))
		fmt.Println(ui.RenderKeyValue("Cleaned", fmt.Sprint(res.Cleaned)))
		fmt.Println(ui.RenderKeyValue("When filled", fmt.Sprint(res.WhenFilled)))
		return nil
	},
}

var adminSeedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Load a JSONC seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := store.LoadSeedFile(args[0])
		if err != nil {
			return err
		}

		ctx := getContext()
		st, closeDB, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		res, err := st.Seed(ctx, seed)
		if err != nil {
			fmt.Println(ui.FormatError("Seed failed"))
			return err
		}
		fmt.Println(ui.FormatSuccess("Seed loaded"))
		fmt.Println(ui.RenderKeyValue("Areas", fmt.Sprint(res.Areas)))
		fmt.Println(ui.RenderKeyValue("Parks", fmt.Sprint(res.Parks)))
		fmt.Println(ui.RenderKeyValue("Users", fmt.Sprint(res.Users)))
		fmt.Println(ui.RenderKeyValue("Records", fmt.Sprint(res.Records)))
		return nil
	},
}

func init() {
	adminCmd.PersistentFlags().AddFlagSet(dbFlags())

	adminAddAreaCmd.Flags().StringVar(&adminAreaCode, "code", "", "Area code (defaults to the id)")
	adminAddAreaCmd.Flags().StringVar(&adminAreaName, "name", "", "Area name")
	adminAddParkCmd.Flags().StringVar(&adminParkName, "name", "", "Park name")
	adminAddUserCmd.Flags().StringVar(&adminUserName, "name", "", "Display name")
	adminAddUserCmd.Flags().StringVar(&adminUserGroup, "group", "", "User group")
	adminAddUserCmd.Flags().StringVar(&adminPassword, "password", "", "Password (prompted when empty)")
	adminAddUserCmd.Flags().StringSliceVar(&adminParks, "parks", nil, "Granted park ids")

	adminCmd.AddCommand(adminAddAreaCmd)
	adminCmd.AddCommand(adminAddParkCmd)
	adminCmd.AddCommand(adminAddUserCmd)
	adminCmd.AddCommand(adminGrantCmd)
	adminCmd.AddCommand(adminCleanupCmd)
	adminCmd.AddCommand(adminSeedCmd)
}

// splitParkFlags accepts both repeated values and CSV lists
func splitParkFlags(values []string) []string {
	var ids []string
	for _, v := range values {
		ids = append(ids, domain.SplitIDs(v)...)
	}
	return ids
}
