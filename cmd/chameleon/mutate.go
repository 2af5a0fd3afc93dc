package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chameleon-db/chameleondb/chameleon/internal/admin"
	"github.com/chameleon-db/chameleondb/chameleon/internal/schema"
	"github.com/chameleon-db/chameleondb/chameleon/pkg/engine"
	"github.com/chameleon-db/chameleondb/chameleon/pkg/engine/mutation"
	"github.com/spf13/cobra"
)

var (
	mutateSet    []string
	mutateFilter []string
)

var mutateCmd = &cobra.Command{
	Use:   "mutate [insert|update|delete] <entity>",
	Short: "Run a single flat mutation against the connected database",
	Long: `Drive the mutation execution core directly, for testing against a
real PostgreSQL database without writing a client.

Examples:
  chameleon mutate insert User --set name=Ada --set email=ada@example.com
  chameleon mutate update User --set name=Grace --filter email:eq:ada@example.com
  chameleon mutate delete User --filter email:eq:ada@example.com`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		op, entity := args[0], args[1]

		workDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		factory := admin.NewManagerFactory(workDir)

		configLoader := factory.CreateConfigLoader()
		cfg, err := configLoader.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		journalLogger, err := factory.CreateJournalLogger()
		if err != nil {
			return fmt.Errorf("failed to initialize journal: %w", err)
		}

		eng := engine.NewEngine()
		loader := schema.NewFileLoader(cfg.Schema.Paths)
		filenames, schemaContents, err := loader.LoadAll()
		if err != nil {
			return fmt.Errorf("failed to load schemas: %w", err)
		}

		merger := schema.NewSimpleMerger()
		mergedResult, err := merger.Merge(filenames, schemaContents)
		if err != nil {
			return fmt.Errorf("failed to merge schemas: %w", err)
		}
		if err := merger.Validate(mergedResult.Content); err != nil {
			return fmt.Errorf("schema validation failed: %w", err)
		}
		if _, err := eng.LoadSchemaFromString(mergedResult.Content); err != nil {
			return fmt.Errorf("failed to parse merged schemas: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		connCfg := getConfigFromEnv()
		if err := eng.Connect(ctx, connCfg); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer eng.Close()

		eng.SetMutationFactory(mutation.NewFactory(eng.Pool(), eng.Schema(), journalLogger))

		fields, err := parseSetFlags(mutateSet)
		if err != nil {
			return err
		}
		filters, err := parseFilterFlags(mutateFilter)
		if err != nil {
			return err
		}

		switch op {
		case "insert":
			ins := eng.Insert(entity)
			for field, value := range fields {
				ins = ins.Set(field, value)
			}
			res, err := ins.Execute(ctx)
			if err != nil {
				return err
			}
			printSuccess("Inserted %s (id=%v)", entity, res.ID)
		case "update":
			upd := eng.Update(entity)
			for field, value := range fields {
				upd = upd.Set(field, value)
			}
			for _, f := range filters {
				upd = upd.Filter(f.field, f.op, f.value)
			}
			res, err := upd.Execute(ctx)
			if err != nil {
				return err
			}
			printSuccess("Updated %d %s row(s)", res.Affected, entity)
		case "delete":
			del := eng.Delete(entity)
			for _, f := range filters {
				del = del.Filter(f.field, f.op, f.value)
			}
			res, err := del.Execute(ctx)
			if err != nil {
				return err
			}
			printSuccess("Deleted %d %s row(s)", res.Affected, entity)
		default:
			return fmt.Errorf("unknown mutation kind %q (expected insert, update, or delete)", op)
		}

		return nil
	},
}

func init() {
	mutateCmd.Flags().StringArrayVar(&mutateSet, "set", nil, "field=value to set, repeatable")
	mutateCmd.Flags().StringArrayVar(&mutateFilter, "filter", nil, "field:op:value to filter by, repeatable (op: eq, neq, gt, gte, lt, lte, in)")
	rootCmd.AddCommand(mutateCmd)
}

func parseSetFlags(raw []string) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	for _, s := range raw {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --set %q, expected field=value", s)
		}
		fields[parts[0]] = parts[1]
	}
	return fields, nil
}

type cliFilter struct {
	field string
	op    string
	value interface{}
}

func parseFilterFlags(raw []string) ([]cliFilter, error) {
	var filters []cliFilter
	for _, s := range raw {
		parts := strings.SplitN(s, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid --filter %q, expected field:op:value", s)
		}
		filters = append(filters, cliFilter{field: parts[0], op: parts[1], value: parts[2]})
	}
	return filters, nil
}
