package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"infactory-workers/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	if len(os.Args) < 2 {
		help(os.Stdout)
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string, out io.Writer) error {
	switch command {
	case "generate":
		fs := flag.NewFlagSet("generate", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		check := fs.Bool("check", false, "Fail if the file differs from the generated catalog instead of writing it")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return generate(*path, *check, out)

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return validate(*path, out)

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return list(*path, out)

	case "update":
		fs := flag.NewFlagSet("update", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		id := fs.String("id", "", "Activity ID to update")
		field := fs.String("field", "", "Field to update (status, version, timeout, retries)")
		value := fs.String("value", "", "New value for the field")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" || *field == "" || *value == "" {
			fs.Usage()
			return fmt.Errorf("id, field, and value are required for update")
		}
		if err := updateActivity(*path, *id, *field, *value); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated activity %s, field %s to %s\n", *id, *field, *value)
		return nil

	case "help":
		help(out)
		return nil

	default:
		help(out)
		return fmt.Errorf("unknown command %q", command)
	}
}

func generate(path string, check bool, out io.Writer) error {
	catalog := buildCatalog()
	if err := catalog.Validate(); err != nil {
		return fmt.Errorf("generated catalog is invalid: %w", err)
	}

	if check {
		existing, err := registry.LoadRegistry(path)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if !sameActivities(existing, catalog) {
			return fmt.Errorf("%s is out of date; run registry-updater generate", path)
		}
		fmt.Fprintf(out, "%s is up to date.\n", path)
		return nil
	}

	if err := registry.Save(catalog, path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d activities to %s\n", len(catalog.Activities), path)
	return nil
}

// sameActivities compares through a JSON round trip of the generated side so
// map and slice types line up with what LoadRegistry produces.
func sameActivities(existing, generated *registry.ActivityRegistry) bool {
	dir, err := os.MkdirTemp("", "registry-check")
	if err != nil {
		return false
	}
	defer os.RemoveAll(dir)

	tmp := dir + "/generated.json"
	if err := registry.Save(generated, tmp); err != nil {
		return false
	}
	normalized, err := registry.LoadRegistry(tmp)
	if err != nil {
		return false
	}
	return existing.Version == normalized.Version &&
		reflect.DeepEqual(existing.Activities, normalized.Activities)
}

func validate(path string, out io.Writer) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	fmt.Fprintf(out, "Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

func list(path string, out io.Writer) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	activities := append([]registry.Activity(nil), reg.Activities...)
	sort.Slice(activities, func(i, j int) bool { return activities[i].ID < activities[j].ID })

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTASK TYPE\tTOOL\tSTATUS\tVERSION")
	for _, a := range activities {
		tool := "-"
		if a.Tool != nil {
			tool = a.Tool.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.TaskType, tool, a.ImplementationStatus, a.Version)
	}
	return w.Flush()
}

func updateActivity(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	activity, ok := reg.Find(id)
	if !ok {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		activity.ImplementationStatus = value
	case "version":
		activity.Version = value
	case "timeout":
		activity.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		activity.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	if err := reg.Validate(); err != nil {
		return fmt.Errorf("update rejected: %w", err)
	}
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return registry.Save(reg, path)
}

func help(out io.Writer) {
	fmt.Fprint(out, `
Usage: registry-updater <command> [flags]

Commands:
  generate  Write the activity catalog derived from the worker packages
  validate  Validate the registry file
  list      List registered activities
  update    Update an existing activity's field
  help      Show this help message

Examples:
  registry-updater generate -path configs/activity-registry.json
  registry-updater generate -check
  registry-updater list
  registry-updater update -id query-nyc-taxi -field status -value verified

Use 'registry-updater <command> -h' for more information about a command.
`)
}
