// file: cmd/root.go
// version: 2.0.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jdfalk/voter-search/internal/config"
	"github.com/jdfalk/voter-search/internal/database"
	"github.com/jdfalk/voter-search/internal/importer"
	"github.com/jdfalk/voter-search/internal/models"
	"github.com/jdfalk/voter-search/internal/search"
	"github.com/jdfalk/voter-search/internal/server"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var databasePath string
var databaseType string

// searchFlags maps each search field to the CLI flag that supplies it.
var searchFlags = []struct {
	field search.Field
	flag  string
}{
	{search.FieldFirstName, "first-name"},
	{search.FieldLastName, "last-name"},
	{search.FieldAddress1, "address1"},
	{search.FieldAddress2, "address2"},
	{search.FieldCity, "city"},
	{search.FieldState, "state"},
	{search.FieldZip, "zip"},
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voter-search",
	Short: "Look up voters by partial, misspelled or incomplete details",
	Long: `Voter Search finds people in a voter file from whatever fragments of
their name and address are known, tolerating typos in names and partial
street numbers, and ranks the matches by confidence.`,
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Start the voter search HTTP API. Shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openStore(); err != nil {
			return err
		}
		defer database.CloseStore()

		fmt.Printf("Using database: %s (%s)\n", config.AppConfig.DatabasePath, config.AppConfig.DatabaseType)
		fmt.Println("Starting voter search server...")

		srv := server.NewServer(database.GlobalStore)
		cfg, err := serverConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		return srv.Start(cfg)
	},
}

// searchCmd runs a one-off search against the configured store
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search voters from the command line",
	Long: `Search voters using the same matching and ranking as the HTTP API.
At least one field flag is required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		terms, err := termsFromFlags(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		if err := openStore(); err != nil {
			return err
		}
		defer database.CloseStore()

		svc := server.NewSearchService(database.GlobalStore, config.AppConfig.MaxResults, config.AppConfig.ScoreWorkers)
		resp, err := svc.Search(cmd.Context(), terms, limit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return printSearchResults(cmd.OutOrStdout(), resp, asJSON)
	},
}

// seedCmd imports voters from a YAML or CSV file
var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Import voters from a YAML or CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		voters, err := importer.LoadFile(args[0])
		if err != nil {
			return err
		}

		if err := openStore(); err != nil {
			return err
		}
		defer database.CloseStore()

		fmt.Printf("Importing %d voters into %s (%s)\n", len(voters), config.AppConfig.DatabasePath, config.AppConfig.DatabaseType)
		imported, err := seedVoters(cmd.Context(), database.GlobalStore, voters, progressbar.Default(int64(len(voters))))
		fmt.Printf("Imported %d voters\n", imported)
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.voter-search.yaml)")
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "voters.db", "path to database")
	rootCmd.PersistentFlags().StringVar(&databaseType, "db-type", "sqlite", "database type: sqlite (default) or pebble")

	viper.BindPFlag("database_path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("database_type", rootCmd.PersistentFlags().Lookup("db-type"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(diagnosticsCmd)

	addServeFlags(serveCmd)
	addSearchFlags(searchCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".voter-search")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	config.InitConfig()

	// Ensure database directory exists
	if dir := filepath.Dir(config.AppConfig.DatabasePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("Error creating database directory: %v\n", err)
		}
	}
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("port", "9099", "port to run the web server on")
	cmd.Flags().String("host", "localhost", "host to bind the web server to")
	cmd.Flags().String("read-timeout", "15s", "read timeout (e.g. 15s, 1m)")
	cmd.Flags().String("write-timeout", "15s", "write timeout (e.g. 15s, 1m)")
	cmd.Flags().String("idle-timeout", "60s", "idle timeout (e.g. 60s, 2m)")
}

func addSearchFlags(cmd *cobra.Command) {
	for _, sf := range searchFlags {
		cmd.Flags().String(sf.flag, "", "match on "+sf.field.String())
	}
	cmd.Flags().Int("limit", 0, "maximum number of matches (0 uses max_results)")
	cmd.Flags().Bool("json", false, "print matches as JSON")
}

func openStore() error {
	if err := database.InitializeStore(config.AppConfig.DatabaseType, config.AppConfig.DatabasePath); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

func serverConfigFromFlags(cmd *cobra.Command) (server.ServerConfig, error) {
	cfg := server.GetDefaultServerConfig()
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Host = host
	}

	timeouts := []struct {
		flag string
		dst  *time.Duration
	}{
		{"read-timeout", &cfg.ReadTimeout},
		{"write-timeout", &cfg.WriteTimeout},
		{"idle-timeout", &cfg.IdleTimeout},
	}
	for _, to := range timeouts {
		raw, _ := cmd.Flags().GetString(to.flag)
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid --%s: %w", to.flag, err)
		}
		*to.dst = d
	}
	return cfg, nil
}

func termsFromFlags(cmd *cobra.Command) ([]search.Term, error) {
	pairs := make(map[search.Field]string)
	for _, sf := range searchFlags {
		if v, _ := cmd.Flags().GetString(sf.flag); v != "" {
			pairs[sf.field] = v
		}
	}
	terms := search.NewTerms(pairs)
	if len(terms) == 0 {
		return nil, fmt.Errorf("at least one search field is required")
	}
	return terms, nil
}

func printSearchResults(w io.Writer, resp *server.SearchResponse, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if resp.Count == 0 {
		fmt.Fprintln(w, "No matches found")
		return nil
	}
	for _, m := range resp.Matches {
		v := m.Voter
		fmt.Fprintf(w, "%.2f  %s %s, %s", m.Confidence, v.FirstName, v.LastName, v.Address1)
		if v.Address2 != "" {
			fmt.Fprintf(w, " %s", v.Address2)
		}
		fmt.Fprintf(w, ", %s, %s %s  [%s]\n", v.City, v.State, v.Zip, v.ID)
	}
	fmt.Fprintf(w, "%d match(es)\n", resp.Count)
	return nil
}

// voterCreator is the slice of database.Store that seeding needs.
type voterCreator interface {
	CreateVoter(voter *models.Voter) (*models.Voter, error)
}

// seedVoters writes voters one at a time, advancing bar after each, and stops
// at the first failure. It returns how many were written.
func seedVoters(ctx context.Context, store voterCreator, voters []models.Voter, bar *progressbar.ProgressBar) (int, error) {
	for i := range voters {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := store.CreateVoter(&voters[i]); err != nil {
			return i, fmt.Errorf("failed to import voter %d (%s %s): %w", i+1, voters[i].FirstName, voters[i].LastName, err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return len(voters), nil
}
