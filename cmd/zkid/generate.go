package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/config"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/hybrid"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/keys"
)

var (
	generateDID      string
	generateFragment string
	generateAlg      string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a composite verification method for a DID",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		id, err := did.ParseDID(generateDID)
		if err != nil {
			return err
		}

		var algID keys.CompositeAlgID
		switch generateAlg {
		case "mldsa44":
			algID = keys.MLDSA44Ed25519Sha512
		case "mldsa65":
			algID = keys.MLDSA65Ed25519Sha512
		default:
			return fmt.Errorf("unknown algorithm %q (want mldsa44 or mldsa65)", generateAlg)
		}

		doc, err := loadDocumentByID(cfg, id)
		if err != nil {
			log.WithField("did", id).Debug("no stored document, creating one")
			doc = did.NewDocument(id)
		}

		store, closeStore, err := openStorage(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		fragment, err := hybrid.GenerateMethod(
			cmd.Context(), doc, store, algID, generateFragment, did.ScopeAssertionMethod)
		if err != nil {
			return err
		}

		if err := saveDocument(cfg, doc); err != nil {
			return err
		}

		log.WithField("fragment", fragment).Info("generated composite method")
		fmt.Println(fragment)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateDID, "did", "", "DID to attach the method to (required)")
	generateCmd.Flags().StringVar(&generateFragment, "fragment", "", "method fragment (derived from kids when empty)")
	generateCmd.Flags().StringVar(&generateAlg, "alg", "mldsa44", "composite algorithm: mldsa44 or mldsa65")
	_ = generateCmd.MarkFlagRequired("did")
}
