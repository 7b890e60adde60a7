package chain

// from backend.go
//go:generate moq -pkg mocks -out ./mocks/backend_mock.go . Backend
