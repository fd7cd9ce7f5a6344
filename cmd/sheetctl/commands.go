package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"charsheet/internal"
	"charsheet/internal/attributes"
	"charsheet/internal/inventory"
	"charsheet/internal/profiles"
	"charsheet/internal/seeder"
)

// Overridden in tests.
var (
	out           io.Writer = os.Stdout
	in            io.Reader = os.Stdin
	isInteractive           = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

func requireApp(app *internal.Application, what string) error {
	if app == nil {
		return fmt.Errorf("app initialization failed, cannot %s", what)
	}
	return nil
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if err := requireApp(app, "run migrations"); err != nil {
		return err
	}

	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("Migrations completed successfully")
	return nil
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if err := requireApp(app, "check status"); err != nil {
		return err
	}

	if err := app.Storage.Ping(ctx); err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	var players, masters int
	for _, p := range app.Profiles.Profiles() {
		if p.Type == profiles.TypeGameMaster {
			masters++
		} else {
			players++
		}
	}

	sheets, err := app.Storage.Keys(ctx, profiles.GridKeyPrefix)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "System Status:")
	fmt.Fprintf(out, "- Database: %s\n", app.Config.DatabaseName)
	fmt.Fprintf(out, "- Players: %d\n", players)
	fmt.Fprintf(out, "- Game masters: %d\n", masters)
	fmt.Fprintf(out, "- Stored sheets: %d\n", len(sheets))
	fmt.Fprintf(out, "- Pending writes: %d\n", app.Writer.Pending())

	db := app.DBManager.GetConnection()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}
	stats := sqlDB.Stats()
	fmt.Fprintf(out, "- Max Open Connections: %d\n", stats.MaxOpenConnections)
	fmt.Fprintf(out, "- Open Connections: %d\n", stats.OpenConnections)
	return nil
}

// ListProfilesCommand prints every profile.
type ListProfilesCommand struct{}

func (c *ListProfilesCommand) Name() string        { return "list-profiles" }
func (c *ListProfilesCommand) Description() string { return "Lists profiles in creation order" }

func (c *ListProfilesCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if err := requireApp(app, "list profiles"); err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tINFO")
	for _, p := range app.Profiles.Profiles() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Type, p.Info)
	}
	return w.Flush()
}

// CreateProfileCommand registers a profile.
type CreateProfileCommand struct{}

func (c *CreateProfileCommand) Name() string { return "create-profile" }
func (c *CreateProfileCommand) Description() string {
	return "Creates a profile: [--type player|gamemaster] [--info text] <name>"
}

func (c *CreateProfileCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	typeFlag := fs.String("type", string(profiles.TypePlayer), "profile type")
	info := fs.String("info", "", "free-text description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireApp(app, "create profiles"); err != nil {
		return err
	}

	typ, err := profiles.ParseType(*typeFlag)
	if err != nil {
		return err
	}

	profile, err := app.Profiles.CreateProfile(ctx, strings.Join(fs.Args(), " "), typ, *info)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	fmt.Fprintln(out, profile.ID)
	return nil
}

// DeleteProfileCommand removes a profile and its sheet.
type DeleteProfileCommand struct{}

func (c *DeleteProfileCommand) Name() string { return "delete-profile" }
func (c *DeleteProfileCommand) Description() string {
	return "Deletes a profile and its sheet: [--yes] <id>"
}

func (c *DeleteProfileCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: %s [--yes] <id>", c.Name())
	}
	if err := requireApp(app, "delete profiles"); err != nil {
		return err
	}

	id := fs.Arg(0)
	profile, ok := app.Profiles.Find(id)
	if !ok {
		fmt.Fprintf(out, "No profile with id %s\n", id)
		return nil
	}

	if !*yes {
		if !isInteractive() {
			return fmt.Errorf("refusing to delete %s without --yes", profile.Name)
		}
		fmt.Fprintf(out, "Delete %s (%s) and its sheet? [y/N] ", profile.Name, profile.Type)
		answer, _ := bufio.NewReader(in).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
	}

	app.Profiles.DeleteProfile(ctx, id)
	fmt.Fprintf(out, "Deleted %s\n", profile.Name)
	return nil
}

// ShowSheetCommand prints a profile's attributes.
type ShowSheetCommand struct{}

func (c *ShowSheetCommand) Name() string { return "show-sheet" }
func (c *ShowSheetCommand) Description() string {
	return "Shows a profile's attributes: [--lang en|pt-BR] <id>"
}

func (c *ShowSheetCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	lang := fs.String("lang", "", "label language (defaults to the configured locale)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: %s [--lang en|pt-BR] <id>", c.Name())
	}
	if err := requireApp(app, "show sheets"); err != nil {
		return err
	}

	locale := *lang
	if locale == "" {
		locale = app.Config.Locale
	}

	session, err := app.Profiles.SelectProfile(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	profile := session.Profile()
	fmt.Fprintf(out, "%s (%s)\n", profile.Name, profile.Type)
	if profile.Info != "" {
		fmt.Fprintln(out, profile.Info)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	labels := attributes.ForLocale(locale).Labels()
	for i, value := range session.Grid() {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, labels[i], value)
	}
	return w.Flush()
}

// SetAttributeCommand writes one attribute of a profile's sheet.
type SetAttributeCommand struct{}

func (c *SetAttributeCommand) Name() string { return "set-attribute" }
func (c *SetAttributeCommand) Description() string {
	return "Sets one attribute: <id> <index 0-9> <value>"
}

func (c *SetAttributeCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: %s <id> <index> <value>", c.Name())
	}
	if err := requireApp(app, "edit sheets"); err != nil {
		return err
	}

	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid index %q: %w", args[1], err)
	}

	session, err := app.Profiles.SelectProfile(ctx, args[0])
	if err != nil {
		return err
	}
	if _, err := session.SetCell(index, args[2]); err != nil {
		return err
	}
	return session.Logout(ctx)
}

// ListItemsCommand prints a profile type's inventory.
type ListItemsCommand struct{}

func (c *ListItemsCommand) Name() string        { return "list-items" }
func (c *ListItemsCommand) Description() string { return "Lists inventory items: <type>" }

func (c *ListItemsCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <type>", c.Name())
	}
	if err := requireApp(app, "list items"); err != nil {
		return err
	}
	typ, err := profiles.ParseType(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION\tIMAGE")
	for _, item := range app.Inventory.Items(ctx, typ) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.ID, item.Name, item.Description, item.Image)
	}
	return w.Flush()
}

// AddItemCommand appends an item to a profile type's inventory.
type AddItemCommand struct{}

func (c *AddItemCommand) Name() string { return "add-item" }
func (c *AddItemCommand) Description() string {
	return "Adds an inventory item: [--image file] <type> <name> <description>"
}

func (c *AddItemCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	image := fs.String("image", "", "image file name under the public assets directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("usage: %s [--image file] <type> <name> <description>", c.Name())
	}
	if err := requireApp(app, "add items"); err != nil {
		return err
	}
	typ, err := profiles.ParseType(fs.Arg(0))
	if err != nil {
		return err
	}

	item, err := app.Inventory.AddItem(ctx, typ, fs.Arg(1), fs.Arg(2), *image)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, item.ID)
	return nil
}

// ImportItemsCommand replaces a profile type's inventory with a YAML catalog.
type ImportItemsCommand struct{}

func (c *ImportItemsCommand) Name() string { return "import-items" }
func (c *ImportItemsCommand) Description() string {
	return "Replaces an inventory from a YAML file: <type> <file>"
}

func (c *ImportItemsCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: %s <type> <file>", c.Name())
	}
	if err := requireApp(app, "import items"); err != nil {
		return err
	}
	typ, err := profiles.ParseType(args[0])
	if err != nil {
		return err
	}

	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	items, err := inventory.ParseCatalog(f)
	if err != nil {
		return fmt.Errorf("invalid catalog %s: %w", args[1], err)
	}
	if err := app.Inventory.ReplaceItems(ctx, typ, items); err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %d items for %s\n", len(items), typ)
	return nil
}

// PruneSheetsCommand removes sheets whose profile no longer exists.
type PruneSheetsCommand struct{}

func (c *PruneSheetsCommand) Name() string { return "prune-sheets" }
func (c *PruneSheetsCommand) Description() string {
	return "Removes sheets left behind by deleted profiles: [--dry-run]"
}

func (c *PruneSheetsCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "only list what would be removed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireApp(app, "prune sheets"); err != nil {
		return err
	}

	if *dryRun {
		keys, err := app.Storage.Keys(ctx, profiles.GridKeyPrefix)
		if err != nil {
			return err
		}
		for _, key := range app.Profiles.OrphanedGridKeys(keys) {
			fmt.Fprintln(out, key)
		}
		return nil
	}

	removed, err := app.Cleanup.Run(ctx)
	for _, key := range removed {
		fmt.Fprintf(out, "Removed %s\n", key)
	}
	return err
}

// SeedCommand populates the store with sample profiles
type SeedCommand struct{}

func (c *SeedCommand) Name() string        { return "seed" }
func (c *SeedCommand) Description() string { return "Seeds the store with sample profiles" }

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	count := fs.Int("profiles", 8, "number of profiles to generate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireApp(app, "seed"); err != nil {
		return err
	}

	created, err := seeder.NewSeeder(app.Profiles, app.Logger, *count).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created %d profiles\n", len(created))
	return nil
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	printUsage()
	return nil
}
