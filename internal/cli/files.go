package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/envctl/envctl/pkg/envfile"
	"github.com/envctl/envctl/pkg/policy"
)

func newFilesCmd() *cobra.Command {
	var (
		merged       bool
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:     "files",
		Aliases: []string{"ls"},
		Short:   "List the managed environment files",
		Long: `List the managed .env files in priority order.

With --merged, print the effective merged configuration instead, one
line per variable with the file that supplied the winning value.
Sensitive values are redacted.

Examples:
  envctl files
  envctl files --merged
  envctl files -o json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager()
			if err != nil {
				return err
			}

			if merged {
				return printMerged(mgr, outputFormat)
			}

			files := mgr.Load()

			switch outputFormat {
			case "json":
				data, err := json.MarshalIndent(files, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
			case "yaml":
				data, err := yaml.Marshal(files)
				if err != nil {
					return fmt.Errorf("failed to marshal YAML: %w", err)
				}
				fmt.Println(string(data))
			default:
				fmt.Printf("%-18s %-9s %-7s %-6s %-8s %-17s %s\n",
					"NAME", "PRIORITY", "EXISTS", "VARS", "SIZE", "MODIFIED", "VALID")
				for _, f := range files {
					if !f.Exists {
						fmt.Printf("%-18s %-9d %-7s %-6s %-8s %-17s %s\n",
							f.Name, f.Priority, "no", "-", "-", "-", "-")
						continue
					}
					fmt.Printf("%-18s %-9d %-7s %-6d %-8s %-17s %s\n",
						f.Name,
						f.Priority,
						"yes",
						len(f.Variables),
						formatSize(f.Size),
						f.ModTime.Format("2006-01-02 15:04"),
						formatValid(f.Valid),
					)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&merged, "merged", false, "Print the merged configuration with provenance")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")

	return cmd
}

// mergedEntry is one variable of the merged view, value already
// redacted when sensitive.
type mergedEntry struct {
	Variable string `json:"variable"`
	Value    string `json:"value"`
	Source   string `json:"source"`
}

func printMerged(mgr *envfile.Manager, outputFormat string) error {
	values, sources := mgr.MergedWithSources()
	pol, err := loadPolicy()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]mergedEntry, 0, len(keys))
	for _, key := range keys {
		value := values[key]
		if pol.IsSensitive(key) {
			value = policy.Redact(value)
		}
		entries = append(entries, mergedEntry{Variable: key, Value: value, Source: sources[key]})
	}

	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Println(string(data))
	default:
		if len(entries) == 0 {
			fmt.Println("No variables found.")
			return nil
		}
		fmt.Printf("%-32s %-40s %s\n", "VARIABLE", "VALUE", "SOURCE")
		for _, e := range entries {
			fmt.Printf("%-32s %-40s %s\n", e.Variable, truncateString(e.Value, 40), e.Source)
		}
	}

	return nil
}

// Helper functions for table output

// formatValid renders a validity flag.
func formatValid(valid bool) string {
	if valid {
		return "yes"
	}
	return "INVALID"
}

// truncateString truncates a string to a maximum length.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// formatSize formats a size in bytes to a human-readable string.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1fMB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1fKB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

// formatTimeAgo formats a time as a human-readable relative time.
func formatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		mins := int(duration.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02")
	}
}
