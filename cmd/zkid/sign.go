package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/config"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/credential"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
)

var (
	signDID      string
	signFragment string
	signSubject  string
	signClaims   string
	signCredID   string
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a credential as a hybrid JWT",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		id, err := did.ParseDID(signDID)
		if err != nil {
			return err
		}
		doc, err := loadDocumentByID(cfg, id)
		if err != nil {
			return err
		}

		claims := map[string]interface{}{}
		if signClaims != "" {
			if err := json.Unmarshal([]byte(signClaims), &claims); err != nil {
				return fmt.Errorf("invalid --claims JSON: %w", err)
			}
		}

		now := time.Now()
		cred := &credential.Credential{
			Context:      []string{credential.BaseContext},
			ID:           signCredID,
			Types:        []string{credential.BaseType},
			Issuer:       id.String(),
			IssuanceDate: &now,
			Subjects: []credential.Subject{
				{ID: signSubject, Properties: claims},
			},
		}

		store, closeStore, err := openStorage(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		jwt, err := credential.CreateCredentialJWT(
			cmd.Context(), cred, doc, store, signFragment, nil, nil)
		if err != nil {
			return err
		}

		log.WithField("fragment", signFragment).Info("signed credential")
		fmt.Println(jwt)
		return nil
	},
}

func init() {
	signCmd.Flags().StringVar(&signDID, "did", "", "issuer DID (required)")
	signCmd.Flags().StringVar(&signFragment, "fragment", "", "composite method fragment (required)")
	signCmd.Flags().StringVar(&signSubject, "subject", "", "credential subject id")
	signCmd.Flags().StringVar(&signClaims, "claims", "", "subject claims as a JSON object")
	signCmd.Flags().StringVar(&signCredID, "credential-id", "", "credential id")
	_ = signCmd.MarkFlagRequired("did")
	_ = signCmd.MarkFlagRequired("fragment")
}
