package hybrid

import (
	"context"
	"fmt"
	"strings"

	"github.com/Cybersecurity-LINKS/zk-identity/pkg/did"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/keys"
	"github.com/Cybersecurity-LINKS/zk-identity/pkg/storage"
)

// GenerateMethod generates a traditional and a post-quantum key pair in
// the given storage, assembles them into one composite verification
// method, inserts the method into the document under scope, and registers
// the paired key handle. It returns the method's "#"-prefixed fragment.
//
// On failure every phase already completed is undone in reverse order and
// the first error is returned; errors during rollback are swallowed.
func GenerateMethod(
	ctx context.Context,
	document *did.Document,
	store *storage.Storage,
	algID keys.CompositeAlgID,
	fragment string,
	scope did.MethodScope,
) (string, error) {
	if algID.Name() == "" {
		return "", ErrInvalidJwsAlgorithm
	}
	ks := store.KeyStore()

	tHandle, tJwk, err := ks.Generate(ctx, keys.KeyTypeEd25519, algID.TraditionalAlgorithm())
	if err != nil {
		return "", fmt.Errorf("key storage error: %w", err)
	}

	pqHandle, pqJwk, err := ks.GeneratePQ(ctx, keys.KeyTypeMLDSA, algID.PQAlgorithm())
	if err != nil {
		undoKeyGeneration(ctx, ks, tHandle)
		return "", fmt.Errorf("key storage error: %w", err)
	}

	undoKeys := func() {
		undoKeyGeneration(ctx, ks, pqHandle)
		undoKeyGeneration(ctx, ks, tHandle)
	}

	fragment, err = resolveFragment(fragment, tJwk, pqJwk)
	if err != nil {
		undoKeys()
		return "", err
	}

	id, err := document.ID().ToURL().Join(fragment)
	if err != nil {
		undoKeys()
		return "", fmt.Errorf("verification method construction error: %w", err)
	}

	method := did.VerificationMethod{
		ID:         id,
		Type:       did.MethodTypeComposite,
		Controller: document.ID(),
		Data: did.MethodData{
			Composite: keys.NewCompositePublicKey(algID, tJwk, pqJwk),
		},
	}

	digest, err := storage.NewMethodDigest(&method)
	if err != nil {
		undoKeys()
		return "", fmt.Errorf("method digest construction error: %w", err)
	}

	paired, err := storage.JoinHandles(tHandle, pqHandle)
	if err != nil {
		undoKeys()
		return "", err
	}

	if err := document.InsertMethod(method, scope); err != nil {
		undoKeys()
		return "", err
	}

	if err := store.KeyHandleStore().Insert(ctx, digest, paired); err != nil {
		// Remove the method from the document as it can no longer be used.
		document.RemoveMethod(id)
		undoKeys()
		return "", fmt.Errorf("key handle storage error: %w", err)
	}

	return "#" + id.Fragment, nil
}

// resolveFragment picks the method fragment: the caller's (normalized),
// else kid_t~kid_pq when both JWKs carry a kid, else whichever kid exists
func resolveFragment(fragment string, tJwk, pqJwk *keys.JWK) (string, error) {
	if fragment == "" {
		switch {
		case tJwk.Kid != "" && pqJwk.Kid != "":
			fragment = tJwk.Kid + "~" + pqJwk.Kid
		case tJwk.Kid != "":
			fragment = tJwk.Kid
		case pqJwk.Kid != "":
			fragment = pqJwk.Kid
		default:
			return "", ErrMissingFragment
		}
	}
	if !strings.HasPrefix(fragment, "#") {
		fragment = "#" + fragment
	}
	return fragment, nil
}

// undoKeyGeneration deletes a freshly generated key, swallowing the error
// in favor of the one that triggered the rollback
func undoKeyGeneration(ctx context.Context, ks storage.KeyStore, handle storage.KeyHandle) {
	_ = ks.Delete(ctx, handle)
}
