package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/config"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/storage"
)

var (
	log     = logrus.New()
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "zkid",
	Short: "Hybrid post-quantum DID credential tooling",
	Long: `zkid manages composite (ML-DSA + Ed25519) verification methods in DID
documents, signs credentials as hybrid JWTs, and validates JPT credentials.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(validateCmd)
}

// openStorage opens the file-backed key store and the sqlite handle store
// under the configured data directory
func openStorage(cfg *config.Config) (*storage.Storage, func(), error) {
	keyStore, err := storage.NewFileKeyStore(filepath.Join(cfg.DataDir.Path, "keys"))
	if err != nil {
		return nil, nil, err
	}
	handleStore, err := storage.NewSqliteKeyHandleStore(cfg.Database.Path, log)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if err := handleStore.Close(); err != nil {
			log.WithError(err).Warn("failed to close handle store")
		}
	}
	return storage.NewStorage(keyStore, handleStore), closer, nil
}

// documentPath returns the path for a DID's document file
func documentPath(cfg *config.Config, id did.DID) string {
	name := strings.ReplaceAll(id.String(), ":", "_")
	return filepath.Join(cfg.DataDir.DocsDir, name+".json")
}

func saveDocument(cfg *config.Config, doc *did.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return os.WriteFile(documentPath(cfg, doc.ID()), data, 0600)
}

func loadDocument(path string) (*did.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	var doc did.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &doc, nil
}

func loadDocumentByID(cfg *config.Config, id did.DID) (*did.Document, error) {
	return loadDocument(documentPath(cfg, id))
}
