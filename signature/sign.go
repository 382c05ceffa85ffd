package signature

import (
	"github.com/bsv-blockchain/utxogate/model"
)

// SignInputs sets the signature of every input owned by signer and returns how
// many inputs it signed. Inputs of other owners are left alone, so a transaction
// with several owners is signed by calling SignInputs once per owner.
func SignInputs(tx *model.Transaction, signer Signer) (int, error) {
	payload := tx.SigningPayload()
	owner := signer.Owner()

	var signature string

	signed := 0

	for i := range tx.Inputs {
		if tx.Inputs[i].Owner != owner {
			continue
		}

		if signature == "" {
			var err error
			if signature, err = signer.Sign(payload); err != nil {
				return signed, err
			}
		}

		tx.Inputs[i].Signature = signature
		signed++
	}

	return signed, nil
}
