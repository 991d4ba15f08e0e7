package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/jpt"
)

var (
	validateIssuerDoc string
	validateAll       bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <credential-jpt>",
	Short: "Validate a JPT credential against its issuer document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(validateIssuerDoc)
		if err != nil {
			return err
		}

		failFast := jpt.FirstError
		if validateAll {
			failFast = jpt.AllErrors
		}

		validator := jpt.NewValidator(jpt.Ed25519ProofVerifier{})
		decoded, err := validator.Validate(cmd.Context(), args[0], doc, nil, failFast)
		if err != nil {
			log.WithError(err).Error("credential rejected")
			return err
		}

		out, err := json.MarshalIndent(decoded.Credential, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(out))
		log.Info("credential accepted")
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateIssuerDoc, "issuer-doc", "", "path to the issuer's DID document JSON (required)")
	validateCmd.Flags().BoolVar(&validateAll, "all-errors", false, "collect all validation errors instead of stopping at the first")
	_ = validateCmd.MarkFlagRequired("issuer-doc")
}
