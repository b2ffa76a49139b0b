package main

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/cli/backups"
	"github.com/julianstephens/chapterly/internal/cli/books"
	"github.com/julianstephens/chapterly/internal/cli/catalog"
	"github.com/julianstephens/chapterly/internal/cli/notes"
	"github.com/julianstephens/chapterly/internal/cli/profiles"
	"github.com/julianstephens/chapterly/internal/cli/settings"
	"github.com/julianstephens/chapterly/internal/cli/shared"
	"github.com/julianstephens/chapterly/internal/cli/stats"
	"github.com/julianstephens/chapterly/internal/cli/system"
	"github.com/julianstephens/chapterly/internal/constants"
	apperrors "github.com/julianstephens/chapterly/internal/errors"
	"github.com/julianstephens/chapterly/internal/localstore"
	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/storage/postgres"
	"github.com/julianstephens/chapterly/internal/utils"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"SQLite database path or PostgreSQL connection string. Passwords must not be embedded; use CHAPTERLY_DB_CONNECTION, .pgpass or the OS keyring." type:"string" default:"~/.config/chapterly/chapterly.db" env:"CHAPTERLY_DB"`
	Local   string `help:"Personal library file." type:"string" default:"~/.config/chapterly/local.json" env:"CHAPTERLY_LOCAL"`
	User    string `help:"Act as this user on shared data." env:"CHAPTERLY_USER"`
	Debug   bool   `help:"Log debug output to stderr." env:"CHAPTERLY_DEBUG"`

	Init     system.InitCmd       `cmd:"" help:"Initialize chapterly storage."`
	Migrate  system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Validate system.ValidateCmd   `cmd:"" help:"Check the personal library for inconsistencies."`
	Tui      system.TuiCmd        `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Serve    system.ServeCmd      `cmd:"" help:"Run the HTTP API for shared reading."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Backup   struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a secret (db connection string or aladin API key)."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show a stored secret (db or aladin)."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove a stored secret (db or aladin)."`
		Status system.KeyringStatusCmd `cmd:"" help:"Report keyring availability."`
	} `cmd:"" help:"Manage OS keyring secrets."`

	Book struct {
		Add      books.BookAddCmd      `cmd:"" help:"Add a book to your library."`
		List     books.BookListCmd     `cmd:"" help:"List books."`
		Show     books.BookShowCmd     `cmd:"" help:"Show a book's chapters and plan."`
		Delete   books.BookDeleteCmd   `cmd:"" help:"Delete a book."`
		Complete books.BookCompleteCmd `cmd:"" help:"Toggle a book's completed flag."`
	} `cmd:"" help:"Manage your library."`
	Chapter struct {
		Done books.ChapterDoneCmd `cmd:"" help:"Mark chapters as read."`
		Undo books.ChapterUndoCmd `cmd:"" help:"Mark chapters as unread."`
	} `cmd:"" help:"Track chapter progress."`
	Plan struct {
		Set   books.PlanSetCmd   `cmd:"" help:"Set a reading plan."`
		Show  books.PlanShowCmd  `cmd:"" help:"Show a reading plan and pace."`
		Clear books.PlanClearCmd `cmd:"" help:"Remove a reading plan."`
	} `cmd:"" help:"Manage study pace plans."`
	Wishlist struct {
		Add     books.WishlistAddCmd     `cmd:"" help:"Add a book to the wishlist."`
		List    books.WishlistListCmd    `cmd:"" help:"List the wishlist." default:"1"`
		Remove  books.WishlistRemoveCmd  `cmd:"" help:"Remove a wishlist entry."`
		Promote books.WishlistPromoteCmd `cmd:"" help:"Move a wishlist entry into the library."`
	} `cmd:"" help:"Manage the wishlist."`
	Note struct {
		Write   notes.NoteWriteCmd   `cmd:"" help:"Write or replace a chapter note."`
		List    notes.NoteListCmd    `cmd:"" help:"List a book's notes."`
		Show    notes.NoteShowCmd    `cmd:"" help:"Show a chapter note."`
		Delete  notes.NoteDeleteCmd  `cmd:"" help:"Delete a chapter note."`
		History notes.NoteHistoryCmd `cmd:"" help:"Show recent notes across books."`
	} `cmd:"" help:"Manage chapter notes."`
	Stats stats.StatsCmd `cmd:"" help:"Show reading statistics."`

	Search  catalog.SearchCmd `cmd:"" help:"Search the Aladin book catalog."`
	Catalog struct {
		Add     catalog.CatalogAddCmd     `cmd:"" help:"Register a book by ISBN."`
		Find    catalog.CatalogFindCmd    `cmd:"" help:"Find registered books."`
		Sets    catalog.CatalogSetsCmd    `cmd:"" help:"List chapter sets for a book."`
		Submit  catalog.CatalogSubmitCmd  `cmd:"" help:"Submit or vote for a chapter list."`
		History catalog.CatalogHistoryCmd `cmd:"" help:"Show the vote history of a chapter set."`
	} `cmd:"" help:"Manage the community chapter catalog."`

	Shared struct {
		Create   shared.SharedCreateCmd   `cmd:"" help:"Create a shared book."`
		Join     shared.SharedJoinCmd     `cmd:"" help:"Join a shared book with an invite code."`
		List     shared.SharedListCmd     `cmd:"" help:"List your shared books."`
		Show     shared.SharedShowCmd     `cmd:"" help:"Show a shared book and its members."`
		Progress shared.SharedProgressCmd `cmd:"" help:"Show members' progress."`
		Done     shared.SharedDoneCmd     `cmd:"" help:"Mark shared chapters as read."`
		Undo     shared.SharedUndoCmd     `cmd:"" help:"Mark shared chapters as unread."`
		Note     struct {
			Write  shared.SharedNoteWriteCmd  `cmd:"" help:"Write a note on a shared chapter."`
			List   shared.SharedNoteListCmd   `cmd:"" help:"List your notes on a shared book."`
			Delete shared.SharedNoteDeleteCmd `cmd:"" help:"Delete a shared chapter note."`
		} `cmd:"" help:"Manage notes on shared books."`
	} `cmd:"" help:"Read books together."`
	Board struct {
		Post     shared.BoardPostCmd     `cmd:"" help:"Start a discussion."`
		List     shared.BoardListCmd     `cmd:"" help:"List discussions."`
		Comment  shared.BoardCommentCmd  `cmd:"" help:"Comment on a discussion."`
		Comments shared.BoardCommentsCmd `cmd:"" help:"Show a discussion's comments."`
	} `cmd:"" help:"Use a shared book's discussion board."`
	Profile struct {
		Set  profiles.ProfileSetCmd  `cmd:"" help:"Create or update your profile."`
		Show profiles.ProfileShowCmd `cmd:"" help:"Show your profile." default:"1"`
	} `cmd:"" help:"Manage your profile."`
}

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		apperrors.Fatal(err)
	}

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Chapter-level reading tracker with shared study groups"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	configPath, err := utils.ExpandPath(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}
	configDir := filepath.Dir(configPath)
	if !filepath.IsAbs(configPath) || postgres.IsConnString(CLI.Config) {
		defaultPath, derr := utils.ExpandPath(constants.DefaultConfigPath)
		if derr != nil {
			apperrors.Fatal(derr)
		}
		configDir = filepath.Dir(defaultPath)
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir}); err != nil {
		apperrors.Fatal(err)
	}

	store, err := cli.OpenStore(CLI.Config, CLI.Config == constants.DefaultConfigPath)
	if err != nil {
		apperrors.Fatal(err)
	}
	localPath, err := utils.ExpandPath(CLI.Local)
	if err != nil {
		apperrors.Fatal(err)
	}

	appCtx := &cli.Context{
		Store:    store,
		Local:    localstore.New(localPath),
		UserFlag: CLI.User,
		Debug:    CLI.Debug,
	}

	logger.Debug("Running command", "command", ctx.Command())
	err = ctx.Run(appCtx)
	if cerr := store.Close(); cerr != nil {
		logger.Debug("Closing store", "error", cerr)
	}
	apperrors.Fatal(err)
}
