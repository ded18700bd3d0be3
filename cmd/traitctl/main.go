package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mizuhara/dyntraits/internal/services/schema"
)

var rootCmd = &cobra.Command{
	Use:   "traitctl",
	Short: "Developer tool for trait metadata documents",
	Long: `Developer tool for trait metadata documents.
Validates documents, derives trait keys, and inspects declared traits
without talking to a running service.`,
}

var validateCmd = &cobra.Command{
	Use:   "validate <file-or-data-uri>",
	Short: "Validate a trait metadata document",
	Long:  `Parse and fully validate a trait metadata document from a file or a data: URI. Exits non-zero when the document would be rejected.`,
	Args:  cobra.ExactArgs(1),
	Run:   runValidate,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <name-or-key>",
	Short: "Resolve a trait name or literal key to its 32-byte key",
	Args:  cobra.ExactArgs(1),
	Run:   runResolve,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "List the traits a metadata document declares",
	Args:  cobra.ExactArgs(1),
	Run:   runInspect,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Failed to execute command: %v", err)
	}
}

func readDocument(arg string) []byte {
	if data, isDataURI, err := schema.DecodeDataURI(arg); isDataURI {
		if err != nil {
			log.Fatalf("Failed to decode data URI: %v", err)
		}
		return data
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		log.Fatalf("Failed to read document: %v", err)
	}
	return data
}

func runValidate(cmd *cobra.Command, args []string) {
	loaded, err := schema.LoadSchema(readDocument(args[0]))
	if err != nil {
		log.Fatalf("Document rejected: %v", err)
	}

	fmt.Printf("OK: %d trait(s) declared\n", loaded.Len())
}

func runResolve(cmd *cobra.Command, args []string) {
	key, err := schema.ResolveKey(args[0])
	if err != nil {
		log.Fatalf("Failed to resolve key: %v", err)
	}

	fmt.Println(key.Hex())
}

func runInspect(cmd *cobra.Command, args []string) {
	loaded, err := schema.LoadSchema(readDocument(args[0]))
	if err != nil {
		log.Fatalf("Document rejected: %v", err)
	}

	names := make([]string, 0, loaded.Len())
	for name := range loaded.Names {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := loaded.Entry(loaded.Names[name])
		fmt.Printf("%s\t%s\t%s", name, entry.Key.Hex(), entry.DataType.TypeName())
		if entry.TokenOwnerCanUpdate {
			fmt.Print("\towner-updatable")
		}
		if entry.ConsumptionValidation != "none" {
			fmt.Printf("\tonSale=%s", entry.ConsumptionValidation)
		}
		fmt.Println()
	}
}
