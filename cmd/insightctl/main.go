package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"caseinsight-backend/app"
	"caseinsight-backend/config"
	"caseinsight-backend/repository"
	"caseinsight-backend/service"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: No .env file found, using environment variables")
	}

	rootCmd := &cobra.Command{
		Use:          "insightctl",
		Short:        "Administer the case insight pipeline",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createPractitionerCmd())
	rootCmd.AddCommand(classifyPendingCmd())
	rootCmd.AddCommand(runBatchCmd())
	rootCmd.AddCommand(invalidateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func buildApp(ctx context.Context) (*app.App, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, logger)
}

// caseFlags registers the flags naming the case and the acting practitioner
func caseFlags(cmd *cobra.Command, caseID, callerID *string) {
	cmd.Flags().StringVar(caseID, "case", "", "case id")
	cmd.Flags().StringVar(callerID, "caller", "", "id of the practitioner who owns the case")
	cmd.MarkFlagRequired("case")
	cmd.MarkFlagRequired("caller")
}

func parseAuth(caseID, callerID string) (service.AuthContext, error) {
	cid, err := uuid.Parse(caseID)
	if err != nil {
		return service.AuthContext{}, fmt.Errorf("invalid case id: %w", err)
	}
	pid, err := uuid.Parse(callerID)
	if err != nil {
		return service.AuthContext{}, fmt.Errorf("invalid caller id: %w", err)
	}
	return service.AuthContext{CallerID: pid, CaseID: cid}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if err := repository.Migrate(cmd.Context(), cfg.Database.URL, logger); err != nil {
				return err
			}
			fmt.Println("Schema is up to date")
			return nil
		},
	}
}

func createPractitionerCmd() *cobra.Command {
	var email, password, name, firm string

	cmd := &cobra.Command{
		Use:   "create-practitioner",
		Short: "Register a practitioner",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := app.OpenStore(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			p, err := service.NewPractitionerService(store).Register(cmd.Context(), service.RegisterRequest{
				Email:    email,
				Password: password,
				Name:     name,
				FirmName: firm,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Practitioner created\n")
			fmt.Printf("   ID: %s\n", p.ID)
			fmt.Printf("   Email: %s\n", p.Email)
			fmt.Printf("   Name: %s\n", p.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 8 characters")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&firm, "firm", "", "firm name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	cmd.MarkFlagRequired("name")
	return cmd
}

func classifyPendingCmd() *cobra.Command {
	var caseID, callerID string

	cmd := &cobra.Command{
		Use:   "classify-pending",
		Short: "Classify the unclassified documents of a case",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := parseAuth(caseID, callerID)
			if err != nil {
				return err
			}
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			outcomes, err := a.Documents.ClassifyPending(cmd.Context(), auth)
			if err != nil {
				return err
			}
			if len(outcomes) == 0 {
				fmt.Println("No unclassified documents")
				return nil
			}
			for _, o := range outcomes {
				if o.Err != nil {
					fmt.Printf("  ! %s: %v\n", o.DocumentID, o.Err)
					continue
				}
				fmt.Printf("  + %s: %s (%.2f, %s)\n", o.DocumentID, o.Classification.Role, o.Classification.Confidence, o.Classification.Source)
			}
			return nil
		},
	}

	caseFlags(cmd, &caseID, &callerID)
	return cmd
}

func runBatchCmd() *cobra.Command {
	var caseID, callerID string
	var force bool

	cmd := &cobra.Command{
		Use:   "run-batch",
		Short: "Run the two-phase analysis batch for a case",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := parseAuth(caseID, callerID)
			if err != nil {
				return err
			}
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Batch.RunBatch(cmd.Context(), auth, force)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	caseFlags(cmd, &caseID, &callerID)
	cmd.Flags().BoolVar(&force, "force", false, "recompute even when current insights exist")
	return cmd
}

func invalidateCmd() *cobra.Command {
	var caseID string

	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Expire every cached insight of a case",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(caseID)
			if err != nil {
				return fmt.Errorf("invalid case id: %w", err)
			}
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Insights.InvalidateCase(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("Expired %d insight(s)\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "case id")
	cmd.MarkFlagRequired("case")
	return cmd
}
