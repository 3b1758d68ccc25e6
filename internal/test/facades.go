package test

import "github.com/google/uuid"

// TokenParserStub resolves every token to ID unless Err is set.
type TokenParserStub struct {
	ID  uuid.UUID
	Err error
}

// ParseToken returns configured identifier or error.
func (s TokenParserStub) ParseToken(string) (uuid.UUID, error) {
	if s.Err != nil {
		return uuid.Nil, s.Err
	}
	return s.ID, nil
}
