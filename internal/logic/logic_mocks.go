package logic

// from signature_issuer.go
//go:generate moq -pkg mocks -out ./mocks/claim_state_reader_mock.go . ClaimStateReader
//go:generate moq -pkg mocks -out ./mocks/claim_signer_mock.go . ClaimSigner

// from claim_logic.go
//go:generate moq -pkg mocks -out ./mocks/tx_verifier_mock.go . TxVerifier
