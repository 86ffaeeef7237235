// Scheme seed linter.
// Reads YAML seed files of subsidy schemes and validates them before they
// reach the ingest endpoint: structural errors fail the run, missing optional
// fields are reported as warnings.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agrigpt/agrigpt/internal/domain/scheme"
)

type Finding struct {
	Code    string
	File    string
	Scheme  string
	Message string
}

// Warning codes; anything else fails the run.
const (
	codeParse       = "PARSE"
	codeDuplicate   = "DUPLICATE"
	codeNoSteps     = "NO-APPLICATION-STEPS"
	codeNoDocuments = "NO-DOCUMENTS"
	codeNoLevel     = "NO-LEVEL"
)

const extYAML = ".yaml"

func main() {
	seedDir := flag.String("dir", ".", "Directory of seed YAML files")
	flag.Parse()

	files, err := collectSeedFiles(*seedDir, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "ERROR: no seed files found")
		os.Exit(1)
	}

	var findings []Finding
	schemeCount := 0
	seen := make(map[string]string) // scheme name -> first file

	for _, file := range files {
		schemes, parseErr := loadFile(file)
		if parseErr != nil {
			findings = append(findings, Finding{
				Code:    codeParse,
				File:    file,
				Message: parseErr.Error(),
			})
			continue
		}
		schemeCount += len(schemes)
		findings = append(findings, lintSchemes(file, schemes, seen)...)
	}

	errors, warnings := splitFindings(findings)

	fmt.Printf("=== Scheme Seed Report ===\n")
	fmt.Printf("Files checked: %d\n", len(files))
	fmt.Printf("Schemes parsed: %d\n", schemeCount)
	fmt.Printf("Errors: %d, Warnings: %d\n\n", len(errors), len(warnings))
	for _, f := range findings {
		fmt.Printf("[%s] %s\n", f.Code, f.Message)
	}

	if len(errors) > 0 {
		fmt.Printf("\nFAILED: %d seed errors found\n", len(errors))
		os.Exit(1)
	}
	fmt.Println("\nPASSED: all seed files are ingestable")
}

// collectSeedFiles returns explicit file arguments, or every YAML file under
// dir when no arguments are given.
func collectSeedFiles(dir string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading seed directory %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, extYAML) || strings.HasSuffix(name, ".yml")
}

// loadFile parses one seed file through the same validation the server uses
// at startup, so a PASSED run guarantees the file seeds cleanly.
func loadFile(path string) ([]scheme.Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	schemes, err := scheme.ParseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return schemes, nil
}

// lintSchemes reports cross-file duplicates and missing optional fields.
func lintSchemes(file string, schemes []scheme.Scheme, seen map[string]string) []Finding {
	var findings []Finding
	for _, sc := range schemes {
		if firstFile, dup := seen[sc.Name]; dup {
			findings = append(findings, Finding{
				Code:    codeDuplicate,
				File:    file,
				Scheme:  sc.Name,
				Message: fmt.Sprintf("scheme %q in %s already defined in %s", sc.Name, file, firstFile),
			})
			continue
		}
		seen[sc.Name] = file

		findings = append(findings, lintOptionalFields(file, sc)...)
	}
	return findings
}

// lintOptionalFields warns about fields the subsidy advisor renders when
// present; schemes without them produce thinner answers.
func lintOptionalFields(file string, sc scheme.Scheme) []Finding {
	var findings []Finding
	if strings.TrimSpace(sc.ApplicationSteps) == "" {
		findings = append(findings, Finding{
			Code:    codeNoSteps,
			File:    file,
			Scheme:  sc.Name,
			Message: fmt.Sprintf("scheme %q has no application steps", sc.Name),
		})
	}
	if strings.TrimSpace(sc.Documents) == "" {
		findings = append(findings, Finding{
			Code:    codeNoDocuments,
			File:    file,
			Scheme:  sc.Name,
			Message: fmt.Sprintf("scheme %q lists no required documents", sc.Name),
		})
	}
	if sc.Level == "" {
		findings = append(findings, Finding{
			Code:    codeNoLevel,
			File:    file,
			Scheme:  sc.Name,
			Message: fmt.Sprintf("scheme %q has no level (defaults to central)", sc.Name),
		})
	}
	return findings
}

// splitFindings separates hard errors from warnings.
func splitFindings(findings []Finding) (errors, warnings []Finding) {
	for _, f := range findings {
		switch f.Code {
		case codeParse, codeDuplicate:
			errors = append(errors, f)
		default:
			warnings = append(warnings, f)
		}
	}
	return errors, warnings
}
